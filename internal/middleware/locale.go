package middleware

import (
	"context"
	"net/http"

	"avatarbooth/internal/presenter"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// Locale resolves the operator's locale (X-Locale override, else
// Accept-Language matching) and stores it in the request context.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := defaultLocale
			if locale == "" {
				locale = "en"
			}
			if v := r.Header.Get("X-Locale"); v != "" {
				locale = presenter.Locale(v)
			} else if v := r.Header.Get("Accept-Language"); v != "" {
				locale = presenter.Locale(v)
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// Package presenter turns terminal workflow results into operator-readable
// messages. A timeout is deliberately worded as "still processing", never as a
// failure; the order may well finish after the client gave up.
package presenter

import (
	"fmt"

	"golang.org/x/text/language"

	"avatarbooth/internal/domain"
)

var supported = []language.Tag{
	language.English,
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

var locales = []string{"en", "id"}

// Locale matches an Accept-Language header against the supported locales.
func Locale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, _ := matcher.Match(tags...)
	return locales[idx]
}

type text struct {
	en string
	id string
}

var messages = map[string]text{
	"succeeded": {
		en: "Your image is ready.",
		id: "Gambar Anda sudah jadi.",
	},
	"failed": {
		en: "Generation failed: %s",
		id: "Pembuatan gambar gagal: %s",
	},
	"failed_generic": {
		en: "The provider reported a failure. You can retry the whole workflow.",
		id: "Penyedia melaporkan kegagalan. Anda bisa mengulang seluruh proses.",
	},
	"timeout": {
		en: "Still processing. Check the order status again in a little while.",
		id: "Masih diproses. Cek kembali status pesanan beberapa saat lagi.",
	},
	"validation_error": {
		en: "The image was rejected before upload: use a JPG, JPEG or PNG under 2MB.",
		id: "Gambar ditolak sebelum diunggah: gunakan JPG, JPEG atau PNG di bawah 2MB.",
	},
	"auth_error": {
		en: "The API key was rejected. Check the key and try again.",
		id: "API key ditolak. Periksa kembali key Anda lalu coba lagi.",
	},
	"upload_error": {
		en: "Uploading the image failed. Try again in a moment.",
		id: "Unggahan gambar gagal. Coba lagi sebentar lagi.",
	},
	"request_error": {
		en: "The generation request was rejected by the provider.",
		id: "Permintaan pembuatan gambar ditolak oleh penyedia.",
	},
	"provider_failure": {
		en: "The provider reported a failure. You can retry the whole workflow.",
		id: "Penyedia melaporkan kegagalan. Anda bisa mengulang seluruh proses.",
	},
	"internal": {
		en: "Something went wrong on our side. Please retry.",
		id: "Terjadi kesalahan di sisi kami. Silakan coba lagi.",
	},
}

func message(locale, key string) string {
	t, ok := messages[key]
	if !ok {
		t = messages["internal"]
	}
	if locale == "id" {
		return t.id
	}
	return t.en
}

// Outcome renders a terminal outcome for the operator.
func Outcome(locale string, out domain.Outcome) string {
	switch out.State {
	case domain.OutcomeSucceeded:
		return message(locale, "succeeded")
	case domain.OutcomeFailed:
		if out.Reason == "" || out.Reason == domain.ErrProviderFailure.Error() {
			return message(locale, "failed_generic")
		}
		return fmt.Sprintf(message(locale, "failed"), out.Reason)
	case domain.OutcomeTimeout:
		return message(locale, "timeout")
	default:
		return message(locale, "internal")
	}
}

// Failure renders a workflow error for the operator.
func Failure(locale string, err error) string {
	return message(locale, domain.ErrorCode(err))
}

// FailureCode renders a message for an already-mapped error code, as stored on
// a finished session.
func FailureCode(locale, code string) string {
	return message(locale, code)
}

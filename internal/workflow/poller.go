package workflow

import (
	"context"
	"errors"
	"fmt"

	"avatarbooth/internal/domain"
)

// poll issues at most r.attempts status queries, sleeping one fixed interval
// between consecutive attempts. The first attempt fires immediately, so a
// success on attempt k costs k-1 sleeps. No backoff, no jitter.
func (r *Runner) poll(ctx context.Context, apiKey, orderID string, emit func(Event)) (*domain.Outcome, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		state, err := r.api.OrderStatus(ctx, apiKey, orderID)
		if err != nil {
			// A rejected key will not heal between attempts; everything
			// else (flaky status endpoint, transient 5xx) still consumes
			// the attempt and the loop carries on.
			if errors.Is(err, domain.ErrAuth) || ctx.Err() != nil {
				return nil, err
			}
			r.logger.Warn().Err(err).Int("attempt", attempt).Str("order_id", orderID).Msg("workflow: status check failed")
			emit(Event{Stage: StagePolling, Attempt: attempt, Message: "status check failed"})
		} else {
			status, perr := domain.ParseOrderStatus(state.Status)
			if perr != nil {
				return nil, perr
			}
			emit(Event{Stage: StagePolling, Attempt: attempt, Status: status})
			switch status {
			case domain.StatusActive:
				if state.Output == "" {
					return nil, fmt.Errorf("%w: lightx: order %s active without output", domain.ErrRequest, orderID)
				}
				return &domain.Outcome{State: domain.OutcomeSucceeded, OutputURL: state.Output}, nil
			case domain.StatusFailed:
				reason := state.Reason
				if reason == "" {
					reason = domain.ErrProviderFailure.Error()
				}
				return &domain.Outcome{State: domain.OutcomeFailed, Reason: reason}, nil
			}
		}
		if attempt < r.attempts {
			if err := r.sleep(ctx, r.interval); err != nil {
				return nil, err
			}
		}
	}
	r.logger.Info().Str("order_id", orderID).Int("attempts", r.attempts).Msg("workflow: polling budget exhausted")
	return &domain.Outcome{State: domain.OutcomeTimeout}, nil
}

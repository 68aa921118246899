package domain

import (
	"fmt"
	"strings"
)

// Style selects which LightX endpoint handles the generation.
type Style string

const (
	StyleAvatar  Style = "avatar"
	StyleCartoon Style = "cartoon"
)

// ParseStyle sanitizes operator input into a supported style.
func ParseStyle(raw string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StyleAvatar):
		return StyleAvatar, nil
	case string(StyleCartoon):
		return StyleCartoon, nil
	default:
		return "", fmt.Errorf("%w: unsupported style %q", ErrValidation, raw)
	}
}

// DefaultPrompt returns the prompt pre-filled for a style when the operator
// leaves the field empty.
func DefaultPrompt(style Style) string {
	if style == StyleCartoon {
		return "Transform my photo into a full-body cartoon character with bold outlines, exaggerated features, and vibrant colors"
	}
	return "Turn my photo into a superhero avatar with realistic details"
}

// OrderStatus is the provider-reported state of a generation order. LightX
// reports "active" for a completed order with output available.
type OrderStatus string

const (
	StatusInit       OrderStatus = "init"
	StatusProcessing OrderStatus = "processing"
	StatusActive     OrderStatus = "active"
	StatusFailed     OrderStatus = "failed"
)

// ParseOrderStatus maps a provider status string to a known state. Unknown
// strings are rejected so the poller never keeps polling an order it cannot
// interpret.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusInit):
		return StatusInit, nil
	case string(StatusProcessing):
		return StatusProcessing, nil
	case string(StatusActive):
		return StatusActive, nil
	case string(StatusFailed):
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: unrecognized order status %q", ErrRequest, raw)
	}
}

// Terminal reports whether the provider will not change the status anymore.
func (s OrderStatus) Terminal() bool {
	return s == StatusActive || s == StatusFailed
}

// OutcomeState is the client-side terminal state of one submission.
type OutcomeState string

const (
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeFailed    OutcomeState = "failed"

	// OutcomeTimeout means the attempt budget ran out before the provider
	// reached a terminal status. The order may still complete remotely.
	OutcomeTimeout OutcomeState = "timeout"
)

// Outcome is what the presenter renders once a submission stops.
type Outcome struct {
	State     OutcomeState `json:"state"`
	OrderID   string       `json:"order_id,omitempty"`
	OutputURL string       `json:"output_url,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

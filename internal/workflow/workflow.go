// Package workflow drives one generation submission end to end: validate the
// photo, obtain a presigned target, push the bytes, request the generation and
// poll the order until a terminal state or the attempt budget runs out.
package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/infra"
	"avatarbooth/internal/providers/lightx"
	"avatarbooth/internal/validate"
)

// Stage names reported through progress events.
const (
	StageValidating = "validating"
	StageUploading  = "uploading"
	StageGenerating = "generating"
	StagePolling    = "polling"
)

// API is the slice of the LightX client the workflow needs. *lightx.Client
// satisfies it.
type API interface {
	UploadURL(ctx context.Context, apiKey string, size int64, contentType string) (*lightx.UploadTarget, error)
	UploadImage(ctx context.Context, uploadURL string, data []byte, contentType string) error
	RequestGeneration(ctx context.Context, apiKey string, style domain.Style, imageURL, prompt string) (string, error)
	OrderStatus(ctx context.Context, apiKey, orderID string) (*lightx.OrderState, error)
}

// Input carries everything one submission needs. The API key travels with the
// input rather than living on the runner, keeping the runner stateless across
// sessions.
type Input struct {
	APIKey   string
	Filename string
	Data     []byte
	Style    domain.Style
	Prompt   string
}

// Event is a progress notification emitted while a submission runs.
type Event struct {
	Stage   string
	Attempt int
	Status  domain.OrderStatus
	Message string
}

// SleepFunc blocks for d or until ctx is done. Injected so tests never sleep
// for real.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Runner.
type Options struct {
	API          API
	Logger       *infra.Logger
	PollAttempts int
	PollInterval time.Duration
	Sleep        SleepFunc
}

// Runner executes submissions sequentially; it holds no per-submission state.
type Runner struct {
	api      API
	logger   *infra.Logger
	attempts int
	interval time.Duration
	sleep    SleepFunc
}

// NewRunner wires a Runner with the fixed-count polling defaults (5 attempts,
// 3s interval) unless overridden.
func NewRunner(opts Options) *Runner {
	attempts := opts.PollAttempts
	if attempts <= 0 {
		attempts = 5
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Runner{api: opts.API, logger: logger, attempts: attempts, interval: interval, sleep: sleep}
}

// Run executes one submission. Terminal provider states and exhausted polling
// come back as an Outcome; everything that stops the workflow earlier comes
// back as an error wrapping one of the domain sentinels. notify may be nil.
func (r *Runner) Run(ctx context.Context, in Input, notify func(Event)) (*domain.Outcome, error) {
	emit := notify
	if emit == nil {
		emit = func(Event) {}
	}

	emit(Event{Stage: StageValidating})
	if strings.TrimSpace(in.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", domain.ErrValidation)
	}
	contentType, err := validate.Image(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = domain.DefaultPrompt(in.Style)
	}

	emit(Event{Stage: StageUploading})
	target, err := r.api.UploadURL(ctx, in.APIKey, int64(len(in.Data)), contentType)
	if err != nil {
		return nil, err
	}
	if err := r.api.UploadImage(ctx, target.UploadURL, in.Data, contentType); err != nil {
		return nil, err
	}
	r.logger.Info().Str("image_url", target.ImageURL).Msg("workflow: image uploaded")

	emit(Event{Stage: StageGenerating})
	orderID, err := r.api.RequestGeneration(ctx, in.APIKey, in.Style, target.ImageURL, prompt)
	if err != nil {
		return nil, err
	}

	outcome, err := r.poll(ctx, in.APIKey, orderID, emit)
	if err != nil {
		return nil, err
	}
	outcome.OrderID = orderID
	return outcome, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

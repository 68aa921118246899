package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/providers/lightx"
)

type statusResult struct {
	state *lightx.OrderState
	err   error
}

type stubAPI struct {
	mu sync.Mutex

	uploadURLCalls int
	uploadCalls    int
	generateCalls  int
	statusCalls    int

	uploadURLErr error
	uploadErr    error
	generateErr  error
	statuses     []statusResult

	lastContentType string
	lastStyle       domain.Style
	lastPrompt      string
	lastImageURL    string
}

func (s *stubAPI) UploadURL(ctx context.Context, apiKey string, size int64, contentType string) (*lightx.UploadTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadURLCalls++
	s.lastContentType = contentType
	if s.uploadURLErr != nil {
		return nil, s.uploadURLErr
	}
	return &lightx.UploadTarget{
		UploadURL: "https://bucket.test/upload",
		ImageURL:  "https://bucket.test/final.png",
	}, nil
}

func (s *stubAPI) UploadImage(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadCalls++
	return s.uploadErr
}

func (s *stubAPI) RequestGeneration(ctx context.Context, apiKey string, style domain.Style, imageURL, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateCalls++
	s.lastStyle = style
	s.lastPrompt = prompt
	s.lastImageURL = imageURL
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return "order-42", nil
}

func (s *stubAPI) OrderStatus(ctx context.Context, apiKey, orderID string) (*lightx.OrderState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if len(s.statuses) == 0 {
		return &lightx.OrderState{Status: "processing"}, nil
	}
	res := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return res.state, res.err
}

func (s *stubAPI) networkCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadURLCalls + s.uploadCalls + s.generateCalls + s.statusCalls
}

type fakeSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeSleeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sleeps)
}

func pngInput() Input {
	data := make([]byte, 64)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return Input{
		APIKey:   "key-123",
		Filename: "selfie.png",
		Data:     data,
		Style:    domain.StyleAvatar,
	}
}

func newTestRunner(api *stubAPI, sleeper *fakeSleeper) *Runner {
	return NewRunner(Options{
		API:          api,
		PollAttempts: 5,
		PollInterval: 3 * time.Second,
		Sleep:        sleeper.sleep,
	})
}

func TestRunValidationFailsBeforeAnyNetworkCall(t *testing.T) {
	testCases := []struct {
		name string
		in   Input
	}{{
		name: "missing api key",
		in: func() Input {
			in := pngInput()
			in.APIKey = ""
			return in
		}(),
	}, {
		name: "oversized image",
		in: func() Input {
			in := pngInput()
			data := make([]byte, 3*1024*1024)
			copy(data, in.Data)
			in.Data = data
			return in
		}(),
	}, {
		name: "unsupported type",
		in: func() Input {
			in := pngInput()
			in.Filename = "selfie.gif"
			return in
		}(),
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAPI{}
			runner := newTestRunner(api, &fakeSleeper{})
			_, err := runner.Run(context.Background(), tc.in, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want wrapped ErrValidation", err)
			}
			if api.networkCalls() != 0 {
				t.Fatalf("validation failure issued %d network calls, want 0", api.networkCalls())
			}
		})
	}
}

func TestRunHappyPathSucceedsOnSecondAttempt(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{state: &lightx.OrderState{Status: "processing"}},
		{state: &lightx.OrderState{Status: "active", Output: "https://cdn.test/out.png"}},
	}}
	sleeper := &fakeSleeper{}
	runner := newTestRunner(api, sleeper)

	var events []Event
	outcome, err := runner.Run(context.Background(), pngInput(), func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != domain.OutcomeSucceeded {
		t.Fatalf("state = %s, want succeeded", outcome.State)
	}
	if outcome.OutputURL != "https://cdn.test/out.png" {
		t.Fatalf("output = %q", outcome.OutputURL)
	}
	if outcome.OrderID != "order-42" {
		t.Fatalf("order id = %q", outcome.OrderID)
	}
	if api.statusCalls != 2 {
		t.Fatalf("status calls = %d, want 2", api.statusCalls)
	}
	// Success on attempt 2 costs exactly one inter-attempt sleep.
	if sleeper.count() != 1 || sleeper.sleeps[0] != 3*time.Second {
		t.Fatalf("sleeps = %v, want [3s]", sleeper.sleeps)
	}
	if api.lastPrompt != domain.DefaultPrompt(domain.StyleAvatar) {
		t.Fatalf("prompt = %q, want default avatar prompt", api.lastPrompt)
	}
	if api.lastImageURL != "https://bucket.test/final.png" {
		t.Fatalf("image url = %q", api.lastImageURL)
	}
	if api.lastContentType != "image/png" {
		t.Fatalf("content type = %q", api.lastContentType)
	}
	if len(events) < 4 {
		t.Fatalf("events = %d, want at least validating/uploading/generating/polling", len(events))
	}
	if events[0].Stage != StageValidating || events[1].Stage != StageUploading || events[2].Stage != StageGenerating {
		t.Fatalf("unexpected stage order: %+v", events[:3])
	}
}

func TestRunImmediateSuccessSkipsSleeping(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{state: &lightx.OrderState{Status: "active", Output: "https://cdn.test/out.png"}},
	}}
	sleeper := &fakeSleeper{}
	runner := newTestRunner(api, sleeper)

	outcome, err := runner.Run(context.Background(), pngInput(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != domain.OutcomeSucceeded {
		t.Fatalf("state = %s, want succeeded", outcome.State)
	}
	if api.statusCalls != 1 {
		t.Fatalf("status calls = %d, want 1", api.statusCalls)
	}
	if sleeper.count() != 0 {
		t.Fatalf("sleeps = %v, want none", sleeper.sleeps)
	}
}

func TestRunUploadFailureStopsWorkflow(t *testing.T) {
	api := &stubAPI{uploadErr: fmt.Errorf("%w: storage write status 500", domain.ErrUpload)}
	runner := newTestRunner(api, &fakeSleeper{})

	_, err := runner.Run(context.Background(), pngInput(), nil)
	if !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("error = %v, want wrapped ErrUpload", err)
	}
	if api.generateCalls != 0 {
		t.Fatalf("generation requested after failed upload")
	}
}

func TestPollExhaustionIsTimeoutNotFailure(t *testing.T) {
	api := &stubAPI{} // keeps reporting processing
	sleeper := &fakeSleeper{}
	runner := newTestRunner(api, sleeper)

	outcome, err := runner.Run(context.Background(), pngInput(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != domain.OutcomeTimeout {
		t.Fatalf("state = %s, want timeout", outcome.State)
	}
	if api.statusCalls != 5 {
		t.Fatalf("status calls = %d, want exactly 5", api.statusCalls)
	}
	if sleeper.count() != 4 {
		t.Fatalf("sleeps = %d, want 4 inter-attempt sleeps", sleeper.count())
	}
	for _, d := range sleeper.sleeps {
		if d != 3*time.Second {
			t.Fatalf("sleep = %s, want fixed 3s interval", d)
		}
	}
}

func TestPollProviderFailure(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{state: &lightx.OrderState{Status: "processing"}},
		{state: &lightx.OrderState{Status: "failed", Reason: "nsfw content"}},
	}}
	runner := newTestRunner(api, &fakeSleeper{})

	outcome, err := runner.Run(context.Background(), pngInput(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != domain.OutcomeFailed {
		t.Fatalf("state = %s, want failed", outcome.State)
	}
	if outcome.Reason != "nsfw content" {
		t.Fatalf("reason = %q", outcome.Reason)
	}
	if api.statusCalls != 2 {
		t.Fatalf("status calls = %d, want polling to stop at terminal state", api.statusCalls)
	}
}

func TestPollUnknownStatusAborts(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{state: &lightx.OrderState{Status: "mystery"}},
	}}
	runner := newTestRunner(api, &fakeSleeper{})

	_, err := runner.Run(context.Background(), pngInput(), nil)
	if !errors.Is(err, domain.ErrRequest) {
		t.Fatalf("error = %v, want wrapped ErrRequest", err)
	}
	if api.statusCalls != 1 {
		t.Fatalf("status calls = %d, want 1", api.statusCalls)
	}
}

func TestPollAuthRejectionAborts(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{err: fmt.Errorf("%w: status 401", domain.ErrAuth)},
	}}
	runner := newTestRunner(api, &fakeSleeper{})

	_, err := runner.Run(context.Background(), pngInput(), nil)
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("error = %v, want wrapped ErrAuth", err)
	}
	if api.statusCalls != 1 {
		t.Fatalf("status calls = %d, want 1", api.statusCalls)
	}
}

func TestPollToleratesTransientStatusErrors(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{err: fmt.Errorf("%w: status 502", domain.ErrRequest)},
		{state: &lightx.OrderState{Status: "active", Output: "https://cdn.test/out.png"}},
	}}
	runner := newTestRunner(api, &fakeSleeper{})

	outcome, err := runner.Run(context.Background(), pngInput(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != domain.OutcomeSucceeded {
		t.Fatalf("state = %s, want succeeded", outcome.State)
	}
	if api.statusCalls != 2 {
		t.Fatalf("status calls = %d, want the failed check to consume an attempt", api.statusCalls)
	}
}

func TestPollActiveWithoutOutputIsMalformed(t *testing.T) {
	api := &stubAPI{statuses: []statusResult{
		{state: &lightx.OrderState{Status: "active"}},
	}}
	runner := newTestRunner(api, &fakeSleeper{})

	_, err := runner.Run(context.Background(), pngInput(), nil)
	if !errors.Is(err, domain.ErrRequest) {
		t.Fatalf("error = %v, want wrapped ErrRequest", err)
	}
}

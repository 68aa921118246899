// Package lightx is a thin HTTP client for the LightX external API: presigned
// upload URLs, avatar/cartoon generation and order-status lookups. The API key
// is passed per call, never held on the client, so one process can serve many
// operator sessions.
package lightx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"avatarbooth/internal/domain"
	"avatarbooth/internal/infra"
)

// statusOK is the success code LightX reports inside its response envelope,
// independent of the HTTP status.
const statusOK = 2000

const (
	uploadURLPath   = "/external/api/v2/uploadImageUrl"
	avatarPath      = "/external/api/v1/avatar"
	cartoonPath     = "/external/api/v1/cartoon"
	orderStatusPath = "/external/api/v1/order-status"
)

// Options configures the LightX client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the LightX external API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// UploadTarget is the presigned destination returned by the upload-URL
// endpoint. UploadURL accepts exactly one PUT; ImageURL is the public address
// the generation endpoints read from afterwards.
type UploadTarget struct {
	UploadURL string
	ImageURL  string
}

// OrderState is a single status observation. Status is kept as the raw
// provider string; interpreting it is the poller's job.
type OrderState struct {
	OrderID string
	Status  string
	Output  string
	Reason  string
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Body       json.RawMessage `json:"body"`
}

type uploadURLRequest struct {
	UploadType  string `json:"uploadType"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type uploadURLBody struct {
	UploadImage    string `json:"uploadImage"`
	ImageURL       string `json:"imageUrl"`
	MaskedImageURL string `json:"maskedImageUrl"`
}

type generationRequest struct {
	ImageURL      string `json:"imageUrl"`
	StyleImageURL string `json:"styleImageUrl"`
	TextPrompt    string `json:"textPrompt"`
}

type generationBody struct {
	OrderID string `json:"orderId"`
}

type orderStatusRequest struct {
	OrderID string `json:"orderId"`
}

type orderStatusBody struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Output  string `json:"output"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.lightxeditor.com"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// UploadURL requests a presigned upload target for an image of the given size
// and content type.
func (c *Client) UploadURL(ctx context.Context, apiKey string, size int64, contentType string) (*UploadTarget, error) {
	payload := uploadURLRequest{UploadType: "imageUrl", Size: size, ContentType: contentType}
	env, err := c.post(ctx, apiKey, uploadURLPath, payload, domain.ErrUpload)
	if err != nil {
		return nil, err
	}
	var body uploadURLBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: lightx: decode upload target: %v", domain.ErrUpload, err)
	}
	imageURL := body.ImageURL
	if imageURL == "" {
		imageURL = body.MaskedImageURL
	}
	if body.UploadImage == "" || imageURL == "" {
		return nil, fmt.Errorf("%w: lightx: upload target missing url", domain.ErrUpload)
	}
	c.logger.Debug().Str("image_url", imageURL).Msg("lightx: presigned upload target issued")
	return &UploadTarget{UploadURL: body.UploadImage, ImageURL: imageURL}, nil
}

// UploadImage pushes the raw bytes to the presigned URL. The target embeds its
// own credentials, so no API key header is sent.
func (c *Client) UploadImage(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: lightx: build storage request: %v", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: lightx: storage write: %v", domain.ErrUpload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: lightx: storage write status %d", domain.ErrUpload, resp.StatusCode)
	}
	c.logger.Debug().Int("bytes", len(data)).Msg("lightx: image uploaded")
	return nil
}

// RequestGeneration posts to the style-specific endpoint and returns the order
// identifier tracking the generation.
func (c *Client) RequestGeneration(ctx context.Context, apiKey string, style domain.Style, imageURL, prompt string) (string, error) {
	path := avatarPath
	if style == domain.StyleCartoon {
		path = cartoonPath
	}
	// LightX expects a style reference image; the workflow reuses the
	// uploaded photo for it.
	payload := generationRequest{ImageURL: imageURL, StyleImageURL: imageURL, TextPrompt: prompt}
	env, err := c.post(ctx, apiKey, path, payload, domain.ErrRequest)
	if err != nil {
		return "", err
	}
	var body generationBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return "", fmt.Errorf("%w: lightx: decode generation response: %v", domain.ErrRequest, err)
	}
	if body.OrderID == "" {
		return "", fmt.Errorf("%w: lightx: no orderId in generation response", domain.ErrRequest)
	}
	c.logger.Info().Str("order_id", body.OrderID).Str("style", string(style)).Msg("lightx: generation started")
	return body.OrderID, nil
}

// OrderStatus queries the current state of an order.
func (c *Client) OrderStatus(ctx context.Context, apiKey, orderID string) (*OrderState, error) {
	env, err := c.post(ctx, apiKey, orderStatusPath, orderStatusRequest{OrderID: orderID}, domain.ErrRequest)
	if err != nil {
		return nil, err
	}
	var body orderStatusBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: lightx: decode order status: %v", domain.ErrRequest, err)
	}
	state := &OrderState{OrderID: body.OrderID, Status: body.Status, Output: body.Output, Reason: body.Message}
	if state.Reason == "" {
		state.Reason = env.Message
	}
	return state, nil
}

// post sends one JSON request and unwraps the LightX envelope. Auth rejections
// map to domain.ErrAuth; every other failure wraps fallbackErr so callers keep
// the component-specific taxonomy.
func (c *Client) post(ctx context.Context, apiKey, path string, payload any, fallbackErr error) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: lightx: encode request: %v", fallbackErr, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: lightx: build request: %v", fallbackErr, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: lightx: http request: %v", fallbackErr, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: lightx: read response: %v", fallbackErr, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: lightx: status %d", domain.ErrAuth, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: lightx: status %d: %s", fallbackErr, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: lightx: decode envelope: %v", fallbackErr, err)
	}
	if env.StatusCode == http.StatusUnauthorized || env.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: lightx: %s (%d)", domain.ErrAuth, env.Message, env.StatusCode)
	}
	if env.StatusCode != statusOK {
		return nil, fmt.Errorf("%w: lightx: %s (%d)", fallbackErr, env.Message, env.StatusCode)
	}
	return &env, nil
}

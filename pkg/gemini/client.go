package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-1.5-flash"
)

// LocationPrompt is the fixed instruction sent alongside every screenshot.
const LocationPrompt = "Guess the location from only this photo. Use context clues to figure it out. " +
	"If you know the exact place provide that, otherwise take your best educated guess and ONLY return the city, country, continent. " +
	"Response should be formatted as [Place name]*, [City], [Country], [Continent]"

type Options struct {
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPError is returned for any non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// NewLocationRequest builds the single-turn request pairing LocationPrompt with the image
// carried by dataURL. The data URI prefix is stripped and its media type, if declared, is kept.
func NewLocationRequest(dataURL string) (GenerateContentRequest, error) {
	inline, ok := dataURLToInlineData(dataURL, "image/png")
	if !ok {
		return GenerateContentRequest{}, errors.New("image data is empty")
	}

	return GenerateContentRequest{
		Contents: []Content{{
			Parts: []Part{
				{Text: LocationPrompt},
				{InlineData: &inline},
			},
		}},
	}, nil
}

// GenerateContent sends a single request, authenticated by apiKey as a query parameter.
// There is no retry.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, payload GenerateContentRequest) (*GenerateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		c.baseURL, c.apiVersion, c.model, url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generateContent request", "model", c.model, "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("received generateContent response", "status", httpResp.StatusCode, "bytes", len(rawBody))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, newHTTPError(httpResp.StatusCode, rawBody)
	}

	var decoded GenerateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &decoded, nil
}

func newHTTPError(status int, rawBody []byte) *HTTPError {
	message := http.StatusText(status)

	var decoded errorBody
	if err := json.Unmarshal(rawBody, &decoded); err == nil && decoded.Error != nil {
		if m := strings.TrimSpace(decoded.Error.Message); m != "" {
			message = m
		}
	}

	return &HTTPError{StatusCode: status, Message: message}
}

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+)(;base64)?,`)

func dataURLToInlineData(dataURL string, fallbackMime string) (Blob, bool) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return Blob{}, false
	}

	mime := fallbackMime
	if matches := dataURLRegex.FindStringSubmatch(dataURL); len(matches) >= 2 {
		mime = matches[1]
	}

	data := StripDataURLPrefix(dataURL)
	if data == "" {
		return Blob{}, false
	}

	return Blob{
		Data:     data,
		MimeType: mime,
	}, true
}

// StripDataURLPrefix drops a leading "data:<type>;base64," declaration, leaving the encoded bytes.
// Values without a data URI prefix are returned unchanged.
func StripDataURLPrefix(value string) string {
	if !strings.HasPrefix(value, "data:") {
		return value
	}
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

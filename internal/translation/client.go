package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docs-translator/internal/textutil"
)

var (
	// ErrThrottled is returned when the endpoint answers with an HTML page
	// instead of JSON, which is how it signals rate limiting.
	ErrThrottled = errors.New("translation endpoint throttled the request")
	// ErrEmptyResponse is returned when the response holds no translated fragments.
	ErrEmptyResponse = errors.New("translation endpoint returned no text")
)

// Client translates one piece of text between two endpoint language codes.
type Client interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// GoogleClient calls the public translate_a/single endpoint.
type GoogleClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewGoogleClient creates a client for the given endpoint URL.
func NewGoogleClient(endpoint string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Translate sends one request and returns the concatenated translation.
func (gc *GoogleClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	return gc.doRequest(ctx, text, source, target)
}

func (gc *GoogleClient) doRequest(ctx context.Context, text, source, target string) (string, error) {
	u, err := url.Parse(gc.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(respBody), []byte("<")) {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, ErrThrottled)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, textutil.Truncate(string(respBody), 200))
	}

	return parseResponse(respBody)
}

// parseResponse concatenates the translated fragments of a response shaped
// like [[["fragment","source",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(payload) == 0 {
		return "", ErrEmptyResponse
	}
	sentences, ok := payload[0].([]any)
	if !ok || len(sentences) == 0 {
		return "", ErrEmptyResponse
	}

	var result strings.Builder
	for _, s := range sentences {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if fragment, ok := parts[0].(string); ok {
			result.WriteString(fragment)
		}
	}
	if result.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return result.String(), nil
}

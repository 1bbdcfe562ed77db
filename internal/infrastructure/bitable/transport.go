package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopops/revsync/internal/domain/integration"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// transport performs JSON calls against the open platform and checks the
// {code, msg} envelope of every response.
type transport struct {
	baseURL    string
	httpClient *http.Client
}

func newTransport(cfg *Config) *transport {
	return &transport{
		baseURL: cfg.APIBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// do sends the request and decodes the response into out.
// Transport failures, 429 and 5xx wrap ErrPlatformUnavailable or
// ErrPlatformRateLimited; other non-2xx statuses and non-zero codes are hard failures.
// A non-2xx response carrying an envelope code wraps both the status sentinel
// and the *integration.RemoteError.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, bearer string, payload any, out envelope) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("bitable: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	endpoint := t.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("bitable: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: bitable: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if statusErr := integration.StatusError(resp.StatusCode); statusErr != nil {
		var env Response
		if json.Unmarshal(respBody, &env) == nil && env.Code != 0 {
			return fmt.Errorf("%w: %w", statusErr, env.remoteError())
		}
		return statusErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: bitable: failed to parse response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if env := out.envelopeResponse(); !env.IsSuccess() {
		return env.remoteError()
	}
	return nil
}

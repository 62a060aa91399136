package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// envelope is the response shape shared by all collaborator services:
// {"is_success": bool, "result": ..., "message": "..."}.
type envelope struct {
	IsSuccess bool            `json:"is_success"`
	Result    json.RawMessage `json:"result"`
	Message   string          `json:"message"`
}

// UpstreamError reports a collaborator call that came back non-2xx or
// with is_success=false.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status=%d message=%s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status=%d", e.Service, e.StatusCode)
}

// httpClient is the shared transport for the collaborator clients.
type httpClient struct {
	service string
	baseURL string
	client  *http.Client
}

func newHTTPClient(service, baseURL string, timeout time.Duration) httpClient {
	return httpClient{
		service: service,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// doJSON performs one request and decodes the service envelope into out.
// out may be nil when the caller only cares about success.
func (h *httpClient) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", h.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", h.service, err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", h.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := ""
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			msg = env.Message
		}
		return &UpstreamError{Service: h.service, StatusCode: resp.StatusCode, Message: msg}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", h.service, err)
	}
	if !env.IsSuccess {
		return &UpstreamError{Service: h.service, StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", h.service, err)
		}
	}
	return nil
}

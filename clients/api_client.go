package clients

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

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/logger"
)

// ErrUpstreamUnavailable is returned while the circuit breaker is open.
var ErrUpstreamUnavailable = errors.New("course api temporarily unavailable")

// APIError is a non-2xx answer from the course API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsServerError reports whether the upstream failed on its side.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// APIClient talks to the remote course API. Every call forwards the caller's
// credentials and goes through a circuit breaker that trips on 5xx and
// transport failures only. Nothing is retried.
type APIClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return NewAPIClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewAPIClientWithHTTP(baseURL string, httpClient *http.Client) *APIClient {
	st := gobreaker.Settings{
		Name:        "course-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && !apiErr.IsServerError()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
	}
}

// Do sends a request and returns the response only for 2xx statuses. Any
// other status is turned into an *APIError and the body is closed.
func (c *APIClient) Do(ctx context.Context, method, path string, query url.Values, headers http.Header, body io.Reader) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			for _, vv := range v {
				req.Header.Add(k, vv)
			}
		}
		req.Header.Set("Accept", "application/json")
		if creds, ok := credentialsFrom(ctx); ok {
			creds.apply(req.Header)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			return nil, decodeAPIError(resp)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUpstreamUnavailable
	}
	return resp, err
}

// DoJSON marshals in (when not nil), performs the call and decodes the 2xx body into out (when not nil).
func (c *APIClient) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	headers := http.Header{}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		headers.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, method, path, query, headers, body)
	if err != nil {
		return err
	}
	return DecodeJSON(resp, out)
}

// DecodeJSON decodes and closes a successful response body.
func DecodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads the upstream error body. The message comes from
// "detail" (a string, or a list of strings or {"msg": ...} objects), then
// "error" or "message", and falls back to the status text.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}

	switch {
	case len(payload.Detail) > 0:
		apiErr.Detail = detailText(payload.Detail)
	case payload.Error != "":
		apiErr.Detail = payload.Error
	case payload.Message != "":
		apiErr.Detail = payload.Message
	}
	return apiErr
}

func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(list))
	for _, item := range list {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			msgs = append(msgs, str)
			continue
		}
		var obj struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Msg != "" {
			msgs = append(msgs, obj.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// shared/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HTTPError is a custom error type for HTTP responses with non-OK status codes.
// It unwraps to one of the sentinel errors below when the status maps to one.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Method     string
	kind       error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error %d %s from %s %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP error %d %s from %s %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.kind
}

// Common errors for client usage. Use errors.Is for checking.
var (
	ErrNotFound        = fmt.Errorf("resource not found")
	ErrConflict        = fmt.Errorf("resource conflict")
	ErrBadRequest      = fmt.Errorf("bad request")
	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrTooManyRequests = fmt.Errorf("too many requests")
	ErrInternalError   = fmt.Errorf("internal server error")
)

// NewDefaultHTTPClient creates an http.Client with common timeouts and transport settings.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		// Total request timeout, including connection, handshake, writing, and reading.
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Client is a generic HTTP client for interacting with RESTful JSON APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.SugaredLogger
}

// NewClient creates a new API Client. A nil httpClient falls back to NewDefaultHTTPClient.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = NewDefaultHTTPClient()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger.Sugar(),
	}
}

// Request describes one call. Query and Header are optional.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   interface{}
}

// Do sends the request and decodes a JSON response into result (if non-nil).
func (c *Client) Do(ctx context.Context, r Request, result interface{}) error {
	url := c.baseURL + r.Path
	if len(r.Query) > 0 {
		url += "?" + r.Query.Encode()
	}

	var reqBody io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body for %s %s: %w", r.Method, url, err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request for %s: %w", r.Method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Differentiate between context cancellation and other network errors
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s request to %s cancelled: %w", r.Method, url, ctx.Err())
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s request to %s timed out: %w", r.Method, url, ctx.Err())
		}
		return fmt.Errorf("failed to send %s request to %s: %w", r.Method, url, err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("API request", "method", r.Method, "path", r.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		var errorResponse struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr == nil && len(bodyBytes) > 0 {
			if jsonErr := json.Unmarshal(bodyBytes, &errorResponse); jsonErr == nil {
				if errorResponse.Message != "" {
					return createHTTPError(resp.StatusCode, errorResponse.Message, url, r.Method)
				}
				if errorResponse.Error != "" {
					return createHTTPError(resp.StatusCode, errorResponse.Error, url, r.Method)
				}
			}
			// Fallback: include the raw body if it's small
			if len(bodyBytes) < 500 {
				return createHTTPError(resp.StatusCode, string(bodyBytes), url, r.Method)
			}
		}
		return createHTTPError(resp.StatusCode, "", url, r.Method)
	}

	if result != nil {
		if resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode %s response from %s: %w", r.Method, url, err)
		}
	}
	return nil
}

// createHTTPError maps common status codes to predefined errors.
func createHTTPError(statusCode int, message, url, method string) error {
	httpErr := &HTTPError{StatusCode: statusCode, Message: message, URL: url, Method: method}
	switch statusCode {
	case http.StatusNotFound:
		httpErr.kind = ErrNotFound
	case http.StatusConflict:
		httpErr.kind = ErrConflict
	case http.StatusBadRequest:
		httpErr.kind = ErrBadRequest
	case http.StatusUnauthorized:
		httpErr.kind = ErrUnauthorized
	case http.StatusForbidden:
		httpErr.kind = ErrForbidden
	case http.StatusTooManyRequests:
		httpErr.kind = ErrTooManyRequests
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		httpErr.kind = ErrInternalError
	}
	return httpErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, header http.Header, result interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Header: header}, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, header http.Header, result interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Header: header}, result)
}

// IsHTTPError checks if an error is an HTTPError and optionally matches status code.
func IsHTTPError(err error, status int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return status == 0 || httpErr.StatusCode == status
	}
	return false
}

// GetHTTPStatusCode extracts the status code from an HTTPError if present.
func GetHTTPStatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

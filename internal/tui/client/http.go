package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/Wal-20/studysphere-cli/internal/utils"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches any 403 response.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionExpired is returned before a request is made when the
	// stored token's exp has passed.
	ErrSessionExpired = errors.New("session expired")
)

// HTTPError carries a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %s, Response: %s", e.Status, e.Body)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// Message is the text worth showing a user: the backend's message or
// error field when the body is JSON, otherwise the raw body or status.
func (e *HTTPError) Message() string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if body := strings.TrimSpace(e.Body); body != "" && len(body) < 200 {
		return body
	}
	return e.Status
}

// IsAuthError reports errors that should send the user back to login.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired)
}

// ErrorText renders err for the status line.
func ErrorText(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	return err.Error()
}

func (c *APIClient) get(path string) ([]byte, error) {
	return c.request(http.MethodGet, path, nil)
}

func (c *APIClient) post(path string, data any) ([]byte, error) {
	return c.request(http.MethodPost, path, data)
}

func (c *APIClient) put(path string, data any) ([]byte, error) {
	return c.request(http.MethodPut, path, data)
}

func (c *APIClient) delete(path string, data any) ([]byte, error) {
	return c.request(http.MethodDelete, path, data)
}

// getCached serves path from the response cache when possible.
func (c *APIClient) getCached(key, path string, out any) error {
	if v, ok := c.cache.Get(key); ok {
		if body, ok := v.([]byte); ok {
			return json.Unmarshal(body, out)
		}
	}
	body, err := c.get(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.cache.Set(key, body, cache.DefaultExpiration)
	return nil
}

func (c *APIClient) request(method, path string, data any) ([]byte, error) {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonData)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doRequest(req)
}

func (c *APIClient) doRequest(req *http.Request) ([]byte, error) {
	if token := c.token(); token != "" {
		if utils.TokenExpired(token, c.now()) {
			return nil, ErrSessionExpired
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}

// decode unmarshals a response body, treating an empty body as no data.
func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

package qdrant

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

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// errNotFound marks a 404 answer; callers translate it.
var errNotFound = errors.New("not found")

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 512

// envelope is the wrapper Qdrant puts around every response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// apiError extracts the message from {"status":{"error":"..."}}.
func (e envelope) apiError() string {
	var status struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Status, &status); err == nil {
		return status.Error
	}
	return ""
}

// do sends a JSON request and decodes the "result" field into out (if non-nil).
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.apiError() != "" {
			msg = env.apiError()
		}
		return &statusError{code: resp.StatusCode, msg: msg}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("qdrant: %w: decode response: %v", domain.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("qdrant: %w: decode result: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// statusError is a non-2xx answer other than 404.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant: %s: status %d: %s", domain.ErrStoreUnavailable, e.code, e.msg)
}

func (e *statusError) Unwrap() error {
	return domain.ErrStoreUnavailable
}

func collectionPath(name string, parts ...string) string {
	return "/collections/" + url.PathEscape(name) + strings.Join(parts, "")
}

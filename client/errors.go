package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go-auth-api/model"
)

var (
	// ErrNoCredential is returned by a CredentialStore when a slot is empty.
	ErrNoCredential = errors.New("credential not found")
	// ErrAuthToken matches every failure caused by an unusable refresh
	// token, so callers without a user-facing session can react to it.
	ErrAuthToken = errors.New("auth token error")
	// ErrQueueFull is returned when too many requests are already waiting
	// on the current refresh.
	ErrQueueFull = errors.New("too many requests waiting for token refresh")
)

// RefreshError is delivered to every request queued behind a failed refresh.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

func (e *RefreshError) Is(target error) bool { return target == ErrAuthToken }

// APIError is a non-2xx response decoded from the API error body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// maxErrorBody caps how much of an error response is buffered.
const maxErrorBody = 64 << 10

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var payload model.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil || (payload.Message == "" && payload.Code == "") {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = payload.Code
	apiErr.Message = payload.Message
	return apiErr
}

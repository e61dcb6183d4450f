package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go-auth-api/logger"
	"go-auth-api/model"
)

// ExpiryDetector reports whether resp means the access token expired, as
// opposed to any other authorization failure. body is a prefix of the
// response body and resp.Body still yields the full body afterwards.
type ExpiryDetector func(resp *http.Response, body []byte) bool

// DetectTokenExpired matches a 401 whose JSON body carries code token.expired.
func DetectTokenExpired(resp *http.Response, body []byte) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	var payload model.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Code == model.CodeTokenExpired
}

// Transport attaches the current access token to each request. When the API
// answers with the expiry signal it waits on the Coordinator and resends the
// request once with the refreshed token.
type Transport struct {
	Base        http.RoundTripper
	Tokens      *TokenStore
	Coordinator *RefreshCoordinator
	// Terminator is called for a 401 that is not an expiry, unless
	// KeepSessionOnUnauthorized is set.
	Terminator                SessionTerminator
	KeepSessionOnUnauthorized bool
	IsExpired                 ExpiryDetector
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	token, err := t.Tokens.AccessToken(ctx)
	if err != nil && !errors.Is(err, ErrNoCredential) {
		return nil, err
	}

	resp, err := t.send(req, body, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	expired, err := t.expired(resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if !expired {
		if token != "" && !t.KeepSessionOnUnauthorized && t.Terminator != nil {
			t.Terminator.Terminate(ctx)
		}
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// Another request already renewed the token this one was sent with.
	if current, err := t.Tokens.AccessToken(ctx); err == nil && current != "" && current != token {
		return t.send(req, body, current)
	}

	logger.Log.WithField("url", req.URL.Redacted()).Debug("Access token expired, waiting for refresh")

	fresh, err := t.Coordinator.Await(ctx)
	if err != nil {
		return nil, err
	}

	// One replay only: a second expiry goes back to the caller as is.
	return t.send(req, body, fresh)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) send(req *http.Request, body func() (io.ReadCloser, error), token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if body != nil {
		b, err := body()
		if err != nil {
			return nil, err
		}
		out.Body = b
		out.GetBody = body
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base().RoundTrip(out)
}

type peekedBody struct {
	io.Reader
	io.Closer
}

// expired runs the detector over the start of the body and restores it.
func (t *Transport) expired(resp *http.Response) (bool, error) {
	detect := t.IsExpired
	if detect == nil {
		detect = DetectTokenExpired
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return false, err
	}
	resp.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(head), resp.Body), Closer: resp.Body}

	return detect(resp, head), nil
}

// replayableBody returns a factory yielding a fresh copy of the request body
// per attempt, or nil for bodyless requests. It consumes req.Body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

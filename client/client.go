// Package client is an HTTP client for the auth API that keeps its bearer
// token fresh. Requests that fail because the access token expired wait for
// a single shared refresh and are then resent with the new token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-auth-api/model"
)

type Options struct {
	BaseURL string
	// Store holds the credential slots. Required.
	Store            CredentialStore
	AccessTokenSlot  string
	RefreshTokenSlot string
	CredentialMaxAge time.Duration
	CredentialPath   string

	// Refresher defaults to an HTTPRefresher against BaseURL.
	Refresher Refresher
	// Terminator defaults to NopTerminator.
	Terminator                SessionTerminator
	KeepSessionOnUnauthorized bool
	IsExpired                 ExpiryDetector

	MaxPending     int
	RefreshTimeout time.Duration

	// Base is the transport requests finally go through.
	Base    http.RoundTripper
	Timeout time.Duration
}

type Client struct {
	baseURL     string
	http        *http.Client
	tokens      *TokenStore
	coordinator *RefreshCoordinator
	terminator  SessionTerminator
}

func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("client: credential store is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("client: base url is required")
	}
	if opts.Terminator == nil {
		opts.Terminator = NopTerminator{}
	}
	if opts.Refresher == nil {
		opts.Refresher = NewHTTPRefresher(opts.BaseURL, opts.Base)
	}

	tokens := NewTokenStore(opts.Store, opts.AccessTokenSlot, opts.RefreshTokenSlot, SetOptions{
		MaxAge: opts.CredentialMaxAge,
		Path:   opts.CredentialPath,
	})
	coordinator := NewRefreshCoordinator(opts.Refresher, tokens, opts.Terminator, CoordinatorConfig{
		MaxPending:     opts.MaxPending,
		RefreshTimeout: opts.RefreshTimeout,
	})

	return &Client{
		baseURL: opts.BaseURL,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &Transport{
				Base:                      opts.Base,
				Tokens:                    tokens,
				Coordinator:               coordinator,
				Terminator:                opts.Terminator,
				KeepSessionOnUnauthorized: opts.KeepSessionOnUnauthorized,
				IsExpired:                 opts.IsExpired,
			},
		},
		tokens:      tokens,
		coordinator: coordinator,
		terminator:  opts.Terminator,
	}, nil
}

// HTTPClient exposes the authenticating *http.Client for callers that build
// their own requests.
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) Tokens() *TokenStore { return c.tokens }

func (c *Client) Coordinator() *RefreshCoordinator { return c.coordinator }

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// NewRequest builds a request against the base URL. A non-nil body is sent
// as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, joinURL(c.baseURL, path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	req, err := c.NewRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SignIn opens a session and stores its credential.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.MeResponse, error) {
	var session model.SessionResponse
	if err := c.PostJSON(ctx, "/sessions", model.SessionRequest{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}

	if err := c.tokens.Save(ctx, model.Credential{AccessToken: session.Token, RefreshToken: session.RefreshToken}); err != nil {
		return nil, err
	}

	return &model.MeResponse{Email: email, Permissions: session.Permissions, Roles: session.Roles}, nil
}

// Me returns the user behind the current access token.
func (c *Client) Me(ctx context.Context) (*model.MeResponse, error) {
	var me model.MeResponse
	if err := c.GetJSON(ctx, "/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SignOut revokes the session on the API when possible, clears the stored
// credential and hands over to the terminator.
func (c *Client) SignOut(ctx context.Context) error {
	var revokeErr error
	if _, err := c.tokens.AccessToken(ctx); err == nil {
		revokeErr = c.PostJSON(ctx, "/logout", nil, nil)
	}

	clearErr := c.tokens.Clear(ctx)
	c.terminator.Terminate(ctx)
	return errors.Join(revokeErr, clearErr)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

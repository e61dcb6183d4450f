package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go-auth-api/model"
)

// Refresher exchanges a refresh token for a new credential pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (model.Credential, error)
}

type RefresherFunc func(ctx context.Context, refreshToken string) (model.Credential, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (model.Credential, error) {
	return f(ctx, refreshToken)
}

const DefaultRefreshPath = "/refresh"

// HTTPRefresher calls the API refresh endpoint. Its HTTPClient must not be
// routed through Transport, or a refresh would wait on itself.
type HTTPRefresher struct {
	URL        string
	HTTPClient *http.Client
}

func NewHTTPRefresher(baseURL string, base http.RoundTripper) *HTTPRefresher {
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTPRefresher{
		URL:        joinURL(baseURL, DefaultRefreshPath),
		HTTPClient: &http.Client{Transport: base},
	}
}

func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (model.Credential, error) {
	if refreshToken == "" {
		return model.Credential{}, ErrNoCredential
	}

	payload, err := json.Marshal(model.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return model.Credential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return model.Credential{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return model.Credential{}, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Credential{}, newAPIError(resp)
	}

	var pair model.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return model.Credential{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if pair.Token == "" || pair.RefreshToken == "" {
		return model.Credential{}, errors.New("refresh response is missing tokens")
	}

	return model.Credential{AccessToken: pair.Token, RefreshToken: pair.RefreshToken}, nil
}

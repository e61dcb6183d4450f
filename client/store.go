package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-auth-api/model"
)

const (
	DefaultAccessTokenSlot  = "auth.token"
	DefaultRefreshTokenSlot = "auth.refreshToken"
	DefaultCredentialMaxAge = 30 * 24 * time.Hour
	DefaultCredentialPath   = "/"
)

// SetOptions scope a credential write.
type SetOptions struct {
	// MaxAge is how long the value stays readable. Zero means no expiry.
	MaxAge time.Duration
	Path   string
}

// CredentialStore keeps named credential slots. Reads return the most recent
// write, or ErrNoCredential once a slot is deleted or expired.
type CredentialStore interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string, opts SetOptions) error
	Delete(ctx context.Context, name string) error
}

// TokenStore maps a Credential onto two slots of a CredentialStore.
type TokenStore struct {
	store       CredentialStore
	accessSlot  string
	refreshSlot string
	opts        SetOptions
}

// NewTokenStore returns a TokenStore over store. Empty slot names and a zero
// opts fall back to the defaults.
func NewTokenStore(store CredentialStore, accessSlot, refreshSlot string, opts SetOptions) *TokenStore {
	if accessSlot == "" {
		accessSlot = DefaultAccessTokenSlot
	}
	if refreshSlot == "" {
		refreshSlot = DefaultRefreshTokenSlot
	}
	if opts.MaxAge == 0 {
		opts.MaxAge = DefaultCredentialMaxAge
	}
	if opts.Path == "" {
		opts.Path = DefaultCredentialPath
	}
	return &TokenStore{store: store, accessSlot: accessSlot, refreshSlot: refreshSlot, opts: opts}
}

func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.store.Get(ctx, s.accessSlot)
}

func (s *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return s.store.Get(ctx, s.refreshSlot)
}

// Load returns both tokens. It fails with ErrNoCredential if either is missing.
func (s *TokenStore) Load(ctx context.Context) (model.Credential, error) {
	access, err := s.AccessToken(ctx)
	if err != nil {
		return model.Credential{}, err
	}
	refresh, err := s.RefreshToken(ctx)
	if err != nil {
		return model.Credential{}, err
	}
	return model.Credential{AccessToken: access, RefreshToken: refresh}, nil
}

// Save replaces the current credential.
func (s *TokenStore) Save(ctx context.Context, cred model.Credential) error {
	if cred.AccessToken == "" || cred.RefreshToken == "" {
		return errors.New("credential requires both tokens")
	}
	if err := s.store.Set(ctx, s.accessSlot, cred.AccessToken, s.opts); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.store.Set(ctx, s.refreshSlot, cred.RefreshToken, s.opts); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Clear deletes both slots. Both deletes are attempted.
func (s *TokenStore) Clear(ctx context.Context) error {
	return errors.Join(s.store.Delete(ctx, s.accessSlot), s.store.Delete(ctx, s.refreshSlot))
}

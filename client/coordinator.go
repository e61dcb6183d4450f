package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/sirupsen/logrus"
)

type refreshResult struct {
	token string
	err   error
}

// PendingRequest is a request parked until the in-flight refresh settles.
// It is resolved exactly once.
type PendingRequest struct {
	done chan refreshResult
}

func newPendingRequest() *PendingRequest {
	// Buffered so resolving never blocks on a waiter that gave up.
	return &PendingRequest{done: make(chan refreshResult, 1)}
}

func (p *PendingRequest) resolve(token string, err error) {
	p.done <- refreshResult{token: token, err: err}
}

// Wait blocks until the refresh settles or ctx ends. On success it returns
// the new access token.
func (p *PendingRequest) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-p.done:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CoordinatorConfig bounds the refresh queue.
type CoordinatorConfig struct {
	// MaxPending caps the number of queued requests per refresh. Zero means
	// unbounded.
	MaxPending int
	// RefreshTimeout caps a single refresh call. Zero means no timeout.
	RefreshTimeout time.Duration
}

// RefreshCoordinator guarantees a single refresh at a time. Every request
// that hits an expired token while a refresh is running joins the same queue
// and is released together with the others.
type RefreshCoordinator struct {
	refresher  Refresher
	tokens     *TokenStore
	terminator SessionTerminator
	cfg        CoordinatorConfig

	mu         sync.Mutex
	refreshing bool
	queue      []*PendingRequest
}

func NewRefreshCoordinator(refresher Refresher, tokens *TokenStore, terminator SessionTerminator, cfg CoordinatorConfig) *RefreshCoordinator {
	if terminator == nil {
		terminator = NopTerminator{}
	}
	return &RefreshCoordinator{
		refresher:  refresher,
		tokens:     tokens,
		terminator: terminator,
		cfg:        cfg,
	}
}

// Enqueue parks a request behind the current refresh, starting one if none
// is running.
func (c *RefreshCoordinator) Enqueue() (*PendingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.MaxPending > 0 && len(c.queue) >= c.cfg.MaxPending {
		return nil, ErrQueueFull
	}

	if !c.refreshing {
		c.refreshing = true
		go c.refresh()
	}

	p := newPendingRequest()
	c.queue = append(c.queue, p)
	return p, nil
}

// Await enqueues and waits. It returns the access token to retry with.
func (c *RefreshCoordinator) Await(ctx context.Context) (string, error) {
	p, err := c.Enqueue()
	if err != nil {
		return "", err
	}
	return p.Wait(ctx)
}

// Refreshing reports whether a refresh is in flight.
func (c *RefreshCoordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of queued requests.
func (c *RefreshCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *RefreshCoordinator) refresh() {
	ctx := context.Background()
	if c.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RefreshTimeout)
		defer cancel()
	}

	started := time.Now()
	cred, err := c.fetch(ctx)

	// Draining and clearing the flag happen together, so a request that
	// expires after this point starts a fresh refresh.
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	c.mu.Unlock()

	log := logger.Log.WithFields(logrus.Fields{
		"pending":  len(queue),
		"duration": time.Since(started).String(),
	})

	if err != nil {
		log.WithError(err).Warn("Token refresh failed, rejecting queued requests")
		refreshErr := &RefreshError{Err: err}
		for _, p := range queue {
			p.resolve("", refreshErr)
		}
		c.terminator.Terminate(context.Background())
		return
	}

	log.Info("Token refreshed, replaying queued requests")
	for _, p := range queue {
		p.resolve(cred.AccessToken, nil)
	}
}

func (c *RefreshCoordinator) fetch(ctx context.Context) (model.Credential, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return model.Credential{}, fmt.Errorf("load refresh token: %w", err)
	}

	cred, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return model.Credential{}, err
	}

	if err := c.tokens.Save(ctx, cred); err != nil {
		return model.Credential{}, fmt.Errorf("save refreshed credential: %w", err)
	}
	return cred, nil
}

package store

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go-auth-api/client"
)

// CookieStore reads credentials from an incoming request and writes them as
// Set-Cookie headers on its response. It lives for one request; values it
// writes are visible to its own later reads.
type CookieStore struct {
	r *http.Request
	w http.ResponseWriter
	// Secure marks written cookies as HTTPS only.
	Secure bool

	mu      sync.Mutex
	written map[string]*http.Cookie
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{r: r, w: w, written: make(map[string]*http.Cookie)}
}

func (s *CookieStore) Get(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	c, ok := s.written[name]
	s.mu.Unlock()
	if ok {
		if c.MaxAge < 0 {
			return "", client.ErrNoCredential
		}
		return c.Value, nil
	}

	c, err := s.r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", client.ErrNoCredential
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func (s *CookieStore) Set(_ context.Context, name, value string, opts client.SetOptions) error {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     pathOrRoot(opts.Path),
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	s.write(c)
	return nil
}

func (s *CookieStore) Delete(_ context.Context, name string) error {
	path := "/"
	s.mu.Lock()
	if prev, ok := s.written[name]; ok {
		path = prev.Path
	}
	s.mu.Unlock()

	s.write(&http.Cookie{
		Name:     name,
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) write(c *http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	http.SetCookie(s.w, c)
	s.written[c.Name] = c
}

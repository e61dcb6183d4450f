package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go-auth-api/client"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestNewHandler_ServesHealth(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	cfg := config.Config{}
	cfg.JWT.SecretKey = "secret"
	cfg.JWT.AccessTTL = time.Minute
	cfg.JWT.RefreshTTL = time.Hour

	rr := httptest.NewRecorder()
	NewHandler(database, cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewHandler_ProtectsMe(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	rr := httptest.NewRecorder()
	NewHandler(database, config.Config{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), model.CodeTokenInvalid)
}

func TestNewClient_SignOutClearsRedisCredential(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.ClientConfig{
		BaseURL:          "http://localhost:3333",
		AccessTokenSlot:  client.DefaultAccessTokenSlot,
		RefreshTokenSlot: client.DefaultRefreshTokenSlot,
		CredentialMaxAge: time.Hour,
		CredentialPath:   "/",
	}

	var signedOut atomic.Int32
	c, broadcaster, err := NewClient(rdb, cfg, "session-1", func() { signedOut.Add(1) })
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Tokens().Save(ctx, model.Credential{AccessToken: "a", RefreshToken: "r"}))
	assert.True(t, mr.Exists("credentials:session-1:"+client.DefaultAccessTokenSlot))

	broadcaster.Terminate(ctx)

	_, err = c.Tokens().AccessToken(ctx)
	assert.ErrorIs(t, err, client.ErrNoCredential)
	assert.Equal(t, int32(1), signedOut.Load())
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-auth-api/client"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/logger"
	"go-auth-api/signout"
	"go-auth-api/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewClient builds an API client whose credential lives in Redis under
// session and whose sign-out is broadcast on the configured channel.
func NewClient(rdb *redis.Client, cfg config.ClientConfig, session string, onSignedOut func()) (*client.Client, *signout.Broadcaster, error) {
	credentials := store.NewRedisStore(rdb, "", session).WithScope(cfg.CredentialPath)

	tokens := client.NewTokenStore(credentials, cfg.AccessTokenSlot, cfg.RefreshTokenSlot, client.SetOptions{
		MaxAge: cfg.CredentialMaxAge,
		Path:   cfg.CredentialPath,
	})
	broadcaster := signout.NewBroadcaster(rdb, cfg.SignOutChannel, tokens, onSignedOut)

	c, err := client.New(client.Options{
		BaseURL:          cfg.BaseURL,
		Store:            credentials,
		AccessTokenSlot:  cfg.AccessTokenSlot,
		RefreshTokenSlot: cfg.RefreshTokenSlot,
		CredentialMaxAge: cfg.CredentialMaxAge,
		CredentialPath:   cfg.CredentialPath,
		Terminator:       broadcaster,
		MaxPending:       cfg.MaxPending,
		RefreshTimeout:   cfg.RefreshTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, broadcaster, nil
}

// RunCheck signs in with the configured account, fetches the current user
// and stays subscribed to sign-out broadcasts until interrupted.
func RunCheck() error {
	config.LoadConfig(".")
	logger.Init()
	logger.SetLevel(config.AppConfig.Log.Level)

	cfg := config.AppConfig.Client
	if cfg.Email == "" || cfg.Password == "" {
		return errors.New("client.email and client.password must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := db.ConnectRedis(ctx)
	if err != nil {
		return err
	}
	defer rdb.Close()

	session := uuid.NewString()
	c, broadcaster, err := NewClient(rdb, cfg, session, func() {
		logger.Log.Warn("Session signed out")
		stop()
	})
	if err != nil {
		return err
	}

	log := logger.Log.WithFields(logrus.Fields{"session": session, "origin": broadcaster.Origin()})

	listenErr := make(chan error, 1)
	ready := make(chan struct{})
	go func() { listenErr <- broadcaster.Listen(ctx, ready) }()
	select {
	case <-ready:
	case err := <-listenErr:
		return fmt.Errorf("subscribe to sign-out channel: %w", err)
	}

	if _, err := c.SignIn(ctx, cfg.Email, cfg.Password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	me, err := c.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetch current user: %w", err)
	}
	log.WithFields(logrus.Fields{"email": me.Email, "roles": me.Roles, "permissions": me.Permissions}).Info("Signed in")

	<-ctx.Done()
	if err := <-listenErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

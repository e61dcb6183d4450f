// Package signout implements the global sign-out: it clears the stored
// credential, tells every other session of the same user to do the same and
// moves the local session to its signed-out state.
package signout

import (
	"context"
	"encoding/json"
	"fmt"

	"go-auth-api/client"
	"go-auth-api/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultChannel = "auth"

	messageSignOut = "signOut"
)

type message struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
}

// Broadcaster is a client.SessionTerminator backed by Redis pub/sub.
type Broadcaster struct {
	rdb     *redis.Client
	channel string
	tokens  *client.TokenStore
	origin  string
	// OnSignedOut runs after local credentials are cleared, for both local
	// and broadcast sign-outs.
	OnSignedOut func()
}

func NewBroadcaster(rdb *redis.Client, channel string, tokens *client.TokenStore, onSignedOut func()) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		rdb:         rdb,
		channel:     channel,
		tokens:      tokens,
		origin:      uuid.NewString(),
		OnSignedOut: onSignedOut,
	}
}

// Origin identifies this session in broadcast messages.
func (b *Broadcaster) Origin() string { return b.origin }

// Terminate signs out locally and announces it to the other sessions.
func (b *Broadcaster) Terminate(ctx context.Context) {
	log := logger.Log.WithFields(logrus.Fields{"channel": b.channel, "origin": b.origin})

	b.signOutLocal(ctx)

	payload, err := json.Marshal(message{Type: messageSignOut, Origin: b.origin})
	if err != nil {
		log.WithError(err).Error("Failed to encode sign-out message")
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		log.WithError(err).Error("Failed to broadcast sign-out")
		return
	}
	log.Info("Sign-out broadcast")
}

// Listen applies sign-outs broadcast by other sessions until ctx ends. If
// ready is not nil it is closed once the subscription is live.
func (b *Broadcaster) Listen(ctx context.Context, ready chan<- struct{}) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	_, err := sub.Receive(ctx)
	if ready != nil {
		close(ready)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	return b.consume(ctx, sub.Channel())
}

func (b *Broadcaster) consume(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *Broadcaster) handle(ctx context.Context, payload string) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		logger.Log.WithError(err).WithField("channel", b.channel).Warn("Ignoring malformed broadcast")
		return
	}
	if m.Type != messageSignOut || m.Origin == b.origin {
		return
	}

	logger.Log.WithFields(logrus.Fields{"channel": b.channel, "from": m.Origin}).Info("Sign-out received from another session")
	b.signOutLocal(ctx)
}

func (b *Broadcaster) signOutLocal(ctx context.Context) {
	if err := b.tokens.Clear(ctx); err != nil {
		logger.Log.WithError(err).Error("Failed to clear stored credentials")
	}
	if b.OnSignedOut != nil {
		b.OnSignedOut()
	}
}

// file: store/redis.go

package store

import (
	"context"
	"fmt"

	"go-auth-api/client"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "credentials"

// RedisStore keeps the credentials of one session in Redis, so several
// processes acting for the same user share a single current token.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	session string
	scope   string
}

// NewRedisStore scopes keys as <prefix>:<session>:<name>.
func NewRedisStore(rdb *redis.Client, prefix, session string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: rdb, prefix: prefix, session: session, scope: "/"}
}

// WithScope returns a copy reading at the given path.
func (s *RedisStore) WithScope(scope string) *RedisStore {
	cp := *s
	cp.scope = pathOrRoot(scope)
	return &cp
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, s.session, name)
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	values, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return "", fmt.Errorf("get credential %s: %w", name, err)
	}
	value, ok := values["value"]
	if !ok || !visible(values["path"], s.scope) {
		return "", client.ErrNoCredential
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, name, value string, opts client.SetOptions) error {
	key := s.key(name)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"value": value,
		"path":  pathOrRoot(opts.Path),
	})
	if opts.MaxAge > 0 {
		pipe.Expire(ctx, key, opts.MaxAge)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set credential %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("delete credential %s: %w", name, err)
	}
	return nil
}

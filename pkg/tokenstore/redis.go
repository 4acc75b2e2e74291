package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const refreshKeyPrefix = "refresh:"

// RedisStore keeps refresh jtis in Redis so revocation survives restarts
// and is shared across instances. Each jti maps to its owner, plus a
// per-user set used by RevokeAll.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(jti string) string {
	return refreshKeyPrefix + "jti:" + jti
}

func userKey(userID uuid.UUID) string {
	return refreshKeyPrefix + "user:" + userID.String()
}

func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(jti), userID.String(), ttl)
	pipe.SAdd(ctx, userKey(userID), jti)
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, userID uuid.UUID, jti string) error {
	// GETDEL makes the read and the invalidation one atomic step, so two
	// concurrent refreshes with the same token cannot both succeed.
	owner, err := s.client.GetDel(ctx, tokenKey(jti)).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("consuming refresh token: %w", err)
	}
	s.client.SRem(ctx, userKey(userID), jti)
	if owner != userID.String() {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Revoke(ctx context.Context, userID uuid.UUID, jti string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, tokenKey(jti))
	pipe.SRem(ctx, userKey(userID), jti)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	jtis, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("listing refresh tokens: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, jti := range jtis {
		pipe.Del(ctx, tokenKey(jti))
	}
	pipe.Del(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoking refresh tokens: %w", err)
	}
	return nil
}

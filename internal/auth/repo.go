package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids in redis until they would have expired anyway.
type Denylist struct {
	client *redis.Client
	prefix string
}

// NewDenylist builds a Denylist. A nil client disables revocation.
func NewDenylist(client *redis.Client, prefix string) *Denylist {
	if prefix == "" {
		prefix = "sealerp:auth:revoked"
	}
	return &Denylist{client: client, prefix: prefix}
}

func (d *Denylist) key(jti string) string {
	return d.prefix + ":" + jti
}

// Revoke denylists jti for ttl.
func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if d == nil || d.client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti has been denylisted.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.client == nil || jti == "" {
		return false, nil
	}
	err := d.client.Get(ctx, d.key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

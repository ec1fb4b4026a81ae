package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis é o lock distribuído: SET NX com token e TTL, liberado só pelo
// dono do token.
type Redis struct {
	rdb    *redis.Client
	wait   time.Duration
	ttl    time.Duration
	prefix string
	retry  time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedis(rdb *redis.Client, wait, ttl time.Duration) *Redis {
	if wait <= 0 {
		wait = 3 * time.Second
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		rdb:    rdb,
		wait:   wait,
		ttl:    ttl,
		prefix: "lock:",
		retry:  25 * time.Millisecond,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (Release, error) {
	full := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.rdb.SetNX(ctx, full, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// contexto próprio: o do request pode já ter sido cancelado
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(rctx, r.rdb, []string{full}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, errTimeout(key, r.wait)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
}

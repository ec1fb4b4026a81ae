package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	_ = godotenv.Load("../../.env")

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR não definido")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis indisponível: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisLockExcludesAndTimesOut(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()

	l := NewRedis(rdb, 100*time.Millisecond, 5*time.Second)
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	release, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Lock(ctx, key)
	if !httperr.IsBusiness(err, httperr.CodeTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	release()

	r2, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatalf("after release: %v", err)
	}
	r2()
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()

	l := NewRedis(rdb, 50*time.Millisecond, 50*time.Millisecond)
	key := "test-ttl:" + time.Now().Format(time.RFC3339Nano)

	release, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	// TTL expira e outro processo pega a chave
	time.Sleep(80 * time.Millisecond)
	other := NewRedis(rdb, time.Second, 5*time.Second)
	r2, err := other.Lock(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	release()

	if n, _ := rdb.Exists(ctx, "lock:"+key).Result(); n != 1 {
		t.Fatal("stale release removed the new holder")
	}
	r2()
}

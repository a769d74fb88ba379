// Package suite boots a disposable redis container for repository tests.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	redisImage = "redis"
	redisTag   = "alpine"
	redisPort  = "6379/tcp"

	// hard kill for leaked containers, generous next to the connect timeout
	containerExpirySeconds = 90
	connectTimeout         = 60 * time.Second
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}
	pool.MaxWait = connectTimeout

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(hostConfig *docker.HostConfig) {
		hostConfig.AutoRemove = true
		hostConfig.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	// never returns an error
	_ = resource.Expire(containerExpirySeconds)

	t.Cleanup(func() {
		t.Helper()

		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Fatalf("could not purge redis container: %v", purgeErr)
		}
	})

	// backoff-retry: the container may not accept connections right away
	var client *redis.Client
	if err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{
			Addr: resource.GetHostPort(redisPort),
		})

		return client.Ping(ctx).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	if err = client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush redis: %v", err)
	}

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Storage: client,
	}
}

// ClearOutcomes wipes the outcome keyspace so subtests sharing one container
// start from a clean slate.
func (that *Suite) ClearOutcomes(ctx context.Context) {
	that.Helper()

	keys, err := that.Storage.Keys(ctx, "outcome:*").Result()
	if err != nil {
		that.Fatalf("could not list outcome keys: %v", err)
	}

	if len(keys) == 0 {
		return
	}

	if err = that.Storage.Del(ctx, keys...).Err(); err != nil {
		that.Fatalf("could not clear outcome keys: %v", err)
	}
}

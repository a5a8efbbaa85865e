package refreshtokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestRepositories(t *testing.T) {
	redisRepo, _ := newRedisRepo(t)
	repos := map[string]Repository{
		"memory": NewMemoryRepository(),
		"redis":  redisRepo,
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, repo.Ping(ctx))
			require.NoError(t, repo.Create(ctx, "u1", "tok-1", time.Hour))

			rt, err := repo.Find(ctx, "tok-1")
			require.NoError(t, err)
			assert.Equal(t, "u1", rt.UserID)
			assert.Equal(t, "tok-1", rt.Token)
			assert.WithinDuration(t, time.Now().Add(time.Hour), rt.Expires, 5*time.Second)

			_, err = repo.Find(ctx, "unknown")
			require.ErrorIs(t, err, ErrNotFound)

			deleted, err := repo.Delete(ctx, "tok-1")
			require.NoError(t, err)
			assert.True(t, deleted)
			_, err = repo.Find(ctx, "tok-1")
			require.ErrorIs(t, err, ErrNotFound)

			deleted, err = repo.Delete(ctx, "tok-1")
			require.NoError(t, err, "deleting twice is fine")
			assert.False(t, deleted)
		})
	}
}

func TestRepositories_ConcurrentDeleteHasOneWinner(t *testing.T) {
	redisRepo, _ := newRedisRepo(t)
	repos := map[string]Repository{
		"memory": NewMemoryRepository(),
		"redis":  redisRepo,
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, "u1", "tok", time.Hour))

			const n = 8
			var wg sync.WaitGroup
			var winners atomic.Int32
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					deleted, err := repo.Delete(ctx, "tok")
					assert.NoError(t, err)
					if deleted {
						winners.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), winners.Load())
		})
	}
}

func TestMemoryRepository_Expiry(t *testing.T) {
	repo := NewMemoryRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "u1", "tok", time.Minute))

	now = now.Add(59 * time.Second)
	_, err := repo.Find(ctx, "tok")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = repo.Find(ctx, "tok")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_Expiry(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "u1", "tok", time.Minute))
	assert.True(t, mr.Exists(keyPrefix+"tok"))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Find(ctx, "tok")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_Unavailable(t *testing.T) {
	repo, mr := newRedisRepo(t)
	mr.Close()

	ctx := context.Background()
	require.Error(t, repo.Ping(ctx))
	_, err := repo.Find(ctx, "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

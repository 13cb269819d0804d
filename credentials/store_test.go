package credentials_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-hr-console/credentials"
	"github.com/jrsteele09/go-hr-console/users"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	testIdentity = &users.Identity{ID: "7", Name: "Ann Admin", Email: "a@x.com", Role: users.RoleAdmin}
	testProfile  = &users.Profile{ID: "42", FirstName: "Ann", LastName: "Admin", Department: "HR"}
)

// failingBackend simulates storage that is unavailable (quota, private mode)
type failingBackend struct{}

func (failingBackend) Load(context.Context) (map[string]string, error) {
	return nil, errors.New("storage disabled")
}
func (failingBackend) Save(context.Context, map[string]string) error {
	return errors.New("storage disabled")
}
func (failingBackend) Clear(context.Context) error { return errors.New("storage disabled") }

func newStore(backend credentials.Backend) *credentials.Store {
	return credentials.NewStore(backend, credentials.WithLogger(zerolog.Nop()))
}

func TestStore_WriteReadClear(t *testing.T) {
	ctx := context.Background()
	backend := credentials.NewMemoryBackend()
	store := newStore(backend)

	require.True(t, store.Read(ctx).Empty())

	store.Write(ctx, "t1", testIdentity, testProfile)
	record := store.Read(ctx)
	require.Equal(t, "t1", record.Token)
	require.Equal(t, testIdentity, record.Identity)
	require.Equal(t, testProfile, record.Profile)
	require.Equal(t, "t1", store.Token(ctx))

	store.Clear(ctx)
	require.True(t, store.Read(ctx).Empty())
	values, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestStore_WriteWithoutProfileDropsPreviousProfile(t *testing.T) {
	ctx := context.Background()
	backend := credentials.NewMemoryBackend()
	store := newStore(backend)

	store.Write(ctx, "t1", testIdentity, testProfile)
	store.Write(ctx, "t2", testIdentity, nil)

	// A fresh store over the same backend behaves like a reload
	reloaded := newStore(backend).Read(ctx)
	require.Equal(t, "t2", reloaded.Token)
	require.NotNil(t, reloaded.Identity)
	require.Nil(t, reloaded.Profile)
}

func TestStore_RehydratesFromBackend(t *testing.T) {
	ctx := context.Background()
	backend := credentials.NewMemoryBackend()
	newStore(backend).Write(ctx, "t1", testIdentity, testProfile)

	record := newStore(backend).Read(ctx)
	require.Equal(t, "t1", record.Token)
	require.Equal(t, users.RoleAdmin, record.Identity.Role)
	require.Equal(t, "HR", record.Profile.Department)
}

func TestStore_CorruptSnapshotsReadAsNil(t *testing.T) {
	ctx := context.Background()
	backend := credentials.NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, map[string]string{
		credentials.KeyToken:    "t1",
		credentials.KeyIdentity: "{not json",
		credentials.KeyProfile:  "[]",
	}))

	record := newStore(backend).Read(ctx)
	require.Equal(t, "t1", record.Token)
	require.Nil(t, record.Identity)
	require.Nil(t, record.Profile)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newStore(credentials.NewMemoryBackend())
	store.Write(ctx, "t1", testIdentity, nil)

	record := store.Read(ctx)
	record.Identity.Role = users.RoleEmployee
	require.Equal(t, users.RoleAdmin, store.Read(ctx).Identity.Role)
}

func TestStore_DegradesSilently(t *testing.T) {
	ctx := context.Background()
	store := newStore(failingBackend{})
	require.True(t, store.Persistent())

	t.Run("unreadable storage looks like no session", func(t *testing.T) {
		require.True(t, store.Read(ctx).Empty())
		require.False(t, store.Persistent())
	})

	t.Run("writes still work for this process", func(t *testing.T) {
		store.Write(ctx, "t1", testIdentity, nil)
		require.Equal(t, "t1", store.Token(ctx))
		store.Clear(ctx)
		require.Equal(t, "", store.Token(ctx))
	})

	t.Run("nil backend never persists", func(t *testing.T) {
		s := newStore(nil)
		require.False(t, s.Persistent())
		s.Write(ctx, "t1", testIdentity, nil)
		require.Equal(t, "t1", s.Token(ctx))
	})
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := credentials.NewFileBackend(dir, "browser-1")
	require.NoError(t, err)

	values, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, values)

	require.NoError(t, backend.Save(ctx, map[string]string{credentials.KeyToken: "t1"}))
	require.FileExists(t, filepath.Join(dir, "browser-1.json"))

	values, err = backend.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{credentials.KeyToken: "t1"}, values)

	require.NoError(t, backend.Clear(ctx))
	require.NoFileExists(t, filepath.Join(dir, "browser-1.json"))
	require.NoError(t, backend.Clear(ctx))

	t.Run("rejects path traversal", func(t *testing.T) {
		_, err := credentials.NewFileBackend(dir, "../escape")
		require.Error(t, err)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("nope"), 0o600))
		broken, err := credentials.NewFileBackend(dir, "broken")
		require.NoError(t, err)
		_, err = broken.Load(ctx)
		require.Error(t, err)

		store := newStore(broken)
		require.True(t, store.Read(ctx).Empty())
		require.False(t, store.Persistent())
	})
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := credentials.NewRedisBackend(client, "browser-1", time.Hour)

	store := newStore(backend)
	store.Write(ctx, "t1", testIdentity, testProfile)
	require.True(t, mr.Exists("console:credentials:browser-1"))
	require.Equal(t, "t1", mr.HGet("console:credentials:browser-1", credentials.KeyToken))
	require.Greater(t, mr.TTL("console:credentials:browser-1"), time.Duration(0))

	store.Write(ctx, "t2", testIdentity, nil)
	require.Equal(t, "", mr.HGet("console:credentials:browser-1", credentials.KeyProfile))

	reloaded := newStore(credentials.NewRedisBackend(client, "browser-1", time.Hour)).Read(ctx)
	require.Equal(t, "t2", reloaded.Token)
	require.Equal(t, testIdentity, reloaded.Identity)
	require.Nil(t, reloaded.Profile)

	store.Clear(ctx)
	require.False(t, mr.Exists("console:credentials:browser-1"))
}

func TestFactory(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		b, err := credentials.Factory{}.New("b1")
		require.NoError(t, err)
		require.IsType(t, &credentials.MemoryBackend{}, b)
	})

	t.Run("file", func(t *testing.T) {
		b, err := credentials.Factory{Kind: credentials.KindFile, Dir: t.TempDir()}.New("b1")
		require.NoError(t, err)
		require.IsType(t, &credentials.FileBackend{}, b)
	})

	t.Run("redis needs a client", func(t *testing.T) {
		_, err := credentials.Factory{Kind: credentials.KindRedis}.New("b1")
		require.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := credentials.Factory{Kind: "cookie"}.New("b1")
		require.Error(t, err)
	})

	t.Run("browser id required", func(t *testing.T) {
		_, err := credentials.Factory{}.New("")
		require.Error(t, err)
	})

	t.Run("durability", func(t *testing.T) {
		require.False(t, credentials.Factory{}.Durable())
		require.False(t, credentials.Factory{Kind: credentials.KindMemory}.Durable())
		require.True(t, credentials.Factory{Kind: credentials.KindFile}.Durable())
		require.True(t, credentials.Factory{Kind: credentials.KindRedis}.Durable())

		require.False(t, credentials.Factory{Kind: credentials.KindRedis}.Expires())
		require.True(t, credentials.Factory{Kind: credentials.KindRedis, TTL: time.Hour}.Expires())
		require.False(t, credentials.Factory{Kind: credentials.KindFile, TTL: time.Hour}.Expires())
	})
}

func TestStore_ReloadSeesBackendExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := credentials.NewRedisBackend(client, "browser-1", time.Hour)
	cached := newStore(backend)
	reloading := credentials.NewStore(backend, credentials.WithLogger(zerolog.Nop()), credentials.WithReload())

	cached.Write(ctx, "t1", testIdentity, nil)
	require.Equal(t, "t1", reloading.Token(ctx))

	mr.FastForward(2 * time.Hour)

	require.Equal(t, "t1", cached.Token(ctx), "the cached store keeps its copy")
	require.Empty(t, reloading.Token(ctx))
	require.True(t, reloading.Read(ctx).Empty())
	require.True(t, reloading.Persistent())
}

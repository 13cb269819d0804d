package browsers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-console/server/browsers"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	browsers.NowTimeFunc = func() time.Time { return now }
	defer func() { browsers.NowTimeFunc = time.Now }()

	builds := 0
	repo := browsers.NewInMemoryRepo(func(id string) (*browsers.Browser, error) {
		builds++
		if id == "broken" {
			return nil, errors.New("no storage")
		}
		return &browsers.Browser{}, nil
	})

	t.Run("built once per id", func(t *testing.T) {
		a, err := repo.GetOrCreate(context.Background(), "a")
		require.NoError(t, err)
		require.Equal(t, "a", a.ID)

		again, err := repo.GetOrCreate(context.Background(), "a")
		require.NoError(t, err)
		require.Same(t, a, again)
		require.Equal(t, 1, builds)
	})

	t.Run("build failures are not cached", func(t *testing.T) {
		_, err := repo.GetOrCreate(context.Background(), "broken")
		require.Error(t, err)
		_, ok := repo.Get("broken")
		require.False(t, ok)

		_, err = repo.GetOrCreate(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("sweep drops idle browsers", func(t *testing.T) {
		now = now.Add(time.Hour)
		_, err := repo.GetOrCreate(context.Background(), "b")
		require.NoError(t, err)

		require.Equal(t, 1, repo.Sweep(30*time.Minute))
		_, ok := repo.Get("a")
		require.False(t, ok)
		_, ok = repo.Get("b")
		require.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		repo.Delete("b")
		_, ok := repo.Get("b")
		require.False(t, ok)
		repo.Delete("missing")
	})
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(Options{InMemory: true}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_SetGetDel(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Key("tok"), "user-1", time.Hour))

	got, err := s.Get(ctx, Key("tok"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)

	require.NoError(t, s.Del(ctx, Key("tok")))
	_, err = s.Get(ctx, Key("tok"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_Expiry(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, Key("short"), "user-1", time.Second))

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, Key("short"))
		return err == ErrNotFound
	}, 5*time.Second, 100*time.Millisecond)
}

func TestBadgerStore_MissingKey(t *testing.T) {
	s := openInMemory(t)

	_, err := s.Get(context.Background(), Key("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Options{Dir: dir}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, Key("tok"), "user-9", time.Hour))
	require.NoError(t, s.Close())
	assert.False(t, s.IsAlive())

	s, err = Open(Options{Dir: dir}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, Key("tok"))
	require.NoError(t, err)
	assert.Equal(t, "user-9", got)
	assert.True(t, s.IsAlive())
}

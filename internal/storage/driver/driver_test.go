package driver

import (
	"context"
	"testing"

	"filesmanager/internal/config"
	"filesmanager/internal/storage/local"
	"filesmanager/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, &config.Config{StorageDriver: "local", StorageDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &local.Store{}, store)

	store, err = Open(ctx, &config.Config{StorageDriver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	_, err = Open(ctx, &config.Config{StorageDriver: "ftp"})
	require.Error(t, err)
}

func TestOpenShared_RejectsMemory(t *testing.T) {
	ctx := context.Background()

	_, err := OpenShared(ctx, &config.Config{StorageDriver: "memory"})
	assert.ErrorIs(t, err, ErrProcessLocal)

	store, err := OpenShared(ctx, &config.Config{StorageDriver: "local", StorageDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &local.Store{}, store)
}

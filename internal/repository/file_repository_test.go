package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/domain"
)

func TestFileRepository_EmptySlot(t *testing.T) {
	repo := NewFileLastImageRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.Load(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNoLastImage)

	_, err = repo.UpdatedAt(ctx)
	assert.ErrorIs(t, err, domain.ErrNoLastImage)

	assert.NoError(t, repo.Delete(ctx))
}

func TestFileRepository_SaveOverwritesSingleSlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	repo := NewFileLastImageRepository(dir)
	ctx := context.Background()

	ref, err := repo.Save(ctx, []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LastImageFilename), ref)

	ref2, err := repo.Save(ctx, []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, ref, ref2)

	data, err := repo.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, LastImageFilename, entries[0].Name())

	_, err = repo.UpdatedAt(ctx)
	assert.NoError(t, err)
}

func TestFileRepository_ForeignRefIsRejected(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileLastImageRepository(dir)
	ctx := context.Background()

	other := filepath.Join(dir, "other.png")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	_, err := repo.Save(ctx, []byte("slot"))
	require.NoError(t, err)

	_, err = repo.Load(ctx, other)
	assert.ErrorIs(t, err, domain.ErrNoLastImage)
}

func TestFileRepository_Delete(t *testing.T) {
	repo := NewFileLastImageRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.Save(ctx, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx))

	_, err = repo.Load(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNoLastImage)
}

func TestOpen_File(t *testing.T) {
	cfg := &config.Config{LastImageBackend: config.BackendFile, OutputDir: t.TempDir()}
	repo, closeFn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &FileLastImageRepository{}, repo)
}

func TestOpen_Unknown(t *testing.T) {
	_, _, err := Open(context.Background(), &config.Config{LastImageBackend: "tape"})
	assert.Error(t, err)
}

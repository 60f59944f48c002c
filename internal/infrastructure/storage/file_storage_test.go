package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStorage(t *testing.T) (*LocalFileStorage, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "uploads")
	logger, _ := zap.NewDevelopment()
	s, err := NewLocalFileStorage(base, logger)
	require.NoError(t, err)
	return s, base
}

func TestNewLocalFileStorage(t *testing.T) {
	_, base := newStorage(t)
	assert.DirExists(t, base)

	_, err := NewLocalFileStorage("  ", nil)
	assert.Error(t, err)
}

func TestLocalFileStorage_Save(t *testing.T) {
	ctx := context.Background()
	s, base := newStorage(t)

	t.Run("saves file and creates parent directories", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "transactions/txn1/invoice.pdf", []byte("PDF content here")))

		content, err := os.ReadFile(filepath.Join(base, "transactions", "txn1", "invoice.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []byte("PDF content here"), content)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "overwrite/file.txt", []byte("original")))
		require.NoError(t, s.Save(ctx, "overwrite/file.txt", []byte("updated")))

		content, err := s.Read(ctx, "overwrite/file.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)

		// no temp files left behind
		entries, err := os.ReadDir(filepath.Join(base, "overwrite"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestLocalFileStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "parent traversal", path: "../../etc/passwd"},
		{name: "nested traversal", path: "transactions/../../outside.txt"},
		{name: "base directory itself", path: "."},
		{name: "empty", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Save(ctx, tt.path, []byte("x"))
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)

			_, err = s.Read(ctx, tt.path)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)

			assert.False(t, s.Exists(ctx, tt.path))
		})
	}
}

func TestLocalFileStorage_ReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStorage(t)

	_, err := s.Read(ctx, "missing.txt")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.False(t, s.Exists(ctx, "missing.txt"))

	require.NoError(t, s.Save(ctx, "a/b.txt", []byte("hello")))
	assert.True(t, s.Exists(ctx, "a/b.txt"))
	assert.False(t, s.Exists(ctx, "a"), "directories are not files")

	require.NoError(t, s.Delete(ctx, "a/b.txt"))
	assert.False(t, s.Exists(ctx, "a/b.txt"))

	// idempotent
	require.NoError(t, s.Delete(ctx, "a/b.txt"))
}

func TestLocalFileStorage_GetFullPath(t *testing.T) {
	s, base := newStorage(t)
	assert.Equal(t, filepath.Join(base, "transactions", "t1", "x.pdf"), s.GetFullPath("transactions/t1/x.pdf"))
}

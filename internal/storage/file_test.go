package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: []\n"), 0600))

	source := NewFileSource(path, "", newTestLogger())

	data, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "users: []\n", string(data))
	assert.Equal(t, "file://"+path, source.String())
	assert.NoError(t, source.Close())
}

func TestFileSource_Fetch_Missing(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), "", newTestLogger())

	_, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "file", srcErr.Backend)
	assert.Equal(t, KindNotFound, srcErr.Kind)
}

func TestFileSource_Fetch_CanceledContext(t *testing.T) {
	source := NewFileSource("./users.yaml", "", newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: []\n"), 0600))

	source := NewFileSource(path, "", newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := source.Watch(ctx)
	require.NoError(t, err)

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: alice\n"), 0600))

	select {
	case _, ok := <-changes:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileSource_Watch_ConfigMapSwap(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink layout is specific to unix mounts")
	}

	// kubelet layout: users.yaml -> ..data/users.yaml, ..data -> ..v1
	dir := t.TempDir()
	for _, v := range []string{"..v1", "..v2"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, v), 0700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, v, "users.yaml"), []byte("users: []\n"), 0600))
	}
	require.NoError(t, os.Symlink("..v1", filepath.Join(dir, "..data")))
	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.Symlink(filepath.Join("..data", "users.yaml"), path))

	source := NewFileSource(path, "", newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := source.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Symlink("..v2", filepath.Join(dir, "..data_tmp")))
	require.NoError(t, os.Rename(filepath.Join(dir, "..data_tmp"), filepath.Join(dir, "..data")))

	select {
	case _, ok := <-changes:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification for the ..data swap")
	}
}

func TestFileSource_Watch_MissingDirectory(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "nope", "users.yaml"), "", newTestLogger())

	_, err := source.Watch(context.Background())
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	logger := newTestLogger()

	t.Run("file", func(t *testing.T) {
		uri, err := ParseStorageURI("./users.yaml")
		require.NoError(t, err)
		source, err := NewSource(uri, "", logger)
		require.NoError(t, err)
		assert.IsType(t, &FileSource{}, source)
	})

	t.Run("s3", func(t *testing.T) {
		uri, err := ParseStorageURI("s3+http://localhost:9000/bucket/users.yaml")
		require.NoError(t, err)
		source, err := NewSource(uri, "access:secret", logger)
		require.NoError(t, err)
		assert.IsType(t, &S3Source{}, source)
		assert.Equal(t, "s3://bucket/users.yaml", source.String())
	})

	t.Run("s3 with bad token", func(t *testing.T) {
		uri, err := ParseStorageURI("s3://s3.amazonaws.com/bucket/users.yaml")
		require.NoError(t, err)
		_, err = NewSource(uri, "no-colon", logger)
		assert.Error(t, err)
	})

	t.Run("oci requires token", func(t *testing.T) {
		uri, err := ParseStorageURI("oci://ghcr.io/org/users")
		require.NoError(t, err)
		_, err = NewSource(uri, "", logger)
		assert.ErrorIs(t, err, ErrTokenRequired)
	})

	t.Run("oci", func(t *testing.T) {
		uri, err := ParseStorageURI("oci://ghcr.io/org/users")
		require.NoError(t, err)
		source, err := NewSource(uri, "token", logger)
		require.NoError(t, err)
		assert.Equal(t, "oci://ghcr.io/org/users:latest", source.String())
	})
}

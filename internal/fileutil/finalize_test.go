package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/fileutil"
)

func TestCommitReplacesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(src, []byte("before"), 0o640))

	tc, err := fileutil.NewTempContext(src, src)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), tc.Perm)

	_, err = tc.TmpFile.WriteString("after")
	require.NoError(t, err)
	require.NoError(t, tc.Commit(src, tc.Perm))

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "after", string(data))

	size, err := fileutil.Size(src)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanupOnErrorRemovesTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(src, []byte("before"), 0o600))

	func() {
		err := errors.New("encode failed")

		tc, cerr := fileutil.NewTempContext(src, src)
		require.NoError(t, cerr)

		defer tc.CleanupOnError(&err)
	}()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewTempContextMissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := fileutil.NewTempContext(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	assert.Error(t, err)
}

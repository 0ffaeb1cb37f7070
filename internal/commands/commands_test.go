package commands_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/commands"
	"github.com/flourishbhp/truecopy/internal/config"
)

func execute(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cfg := &config.Config{}

	root := commands.NewRootCommand(cfg, "test")
	root.SetArgs(args)

	return cfg, root.ExecuteContext(context.Background())
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t, "list", "--show")
	require.ErrorIs(t, err, commands.ErrShown)

	assert.Equal(t, "media", cfg.MediaRoot)
	assert.Equal(t, "media/truecopy.db", cfg.Database)
	assert.Equal(t, "filekey.key", cfg.KeyFile)
	assert.Equal(t, "media/stamp/true-copy.png", cfg.Stamp.Path)
	assert.Equal(t, "500x500", cfg.Stamp.Size)
	assert.Equal(t, "25,25", cfg.Stamp.Position)
	assert.InDelta(t, 300.0, cfg.PDF.DPI, 0)
	assert.Equal(t, 8, cfg.Archive.Level)
	assert.Equal(t, "aes256", cfg.Archive.Method)
	assert.Positive(t, cfg.Parallel)
}

func TestEnvironmentAndFlags(t *testing.T) {
	t.Setenv("TRUECOPY_MEDIA_ROOT", "/srv/media")
	t.Setenv("TRUECOPY_ARCHIVE_METHOD", "standard")
	t.Setenv("TRUECOPY_STAMP_SIZE", "400x400")

	cfg, err := execute(t, "stamp", "--show", "--stamp.size", "300x300", "--subject", "1234-0001", "7")
	require.ErrorIs(t, err, commands.ErrShown)

	assert.Equal(t, "/srv/media", cfg.MediaRoot)
	assert.Equal(t, "standard", cfg.Archive.Method)
	assert.Equal(t, "300x300", cfg.Stamp.Size)
	assert.Equal(t, "1234-0001", cfg.Subject)
	assert.Equal(t, []string{"7"}, cfg.Args)
}

func TestValidationRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "subject and all", args: []string{"stamp", "--subject", "1234-0001", "--all"}},
		{name: "unknown method", args: []string{"encrypt", "--all", "--archive.method", "zipcrypto"}},
		{name: "bad stamp size", args: []string{"stamp", "--all", "--stamp.size", "big"}},
		{name: "level out of range", args: []string{"encrypt", "--all", "--archive.level", "12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"--database", filepath.Join(t.TempDir(), "db")}, tt.args...)

			_, err := execute(t, args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, commands.ErrShown)
		})
	}
}

func TestGenerateWritesKeyFileOnce(t *testing.T) {
	t.Parallel()

	keyFile := filepath.Join(t.TempDir(), "filekey.key")

	_, err := execute(t, "generate", "--write", "--key-file", keyFile)
	require.NoError(t, err)

	key, err := archive.ReadKey(keyFile)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	_, err = execute(t, "generate", "--write", "--key-file", keyFile)
	require.Error(t, err)

	again, err := archive.ReadKey(keyFile)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
}

func TestValidatePath_Rejections(t *testing.T) {
	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true

	tests := []struct {
		name string
		path string
		cfg  *config.Config
	}{
		{"parent traversal", "../backup.jsonl", config.DefaultConfig()},
		{"mid-path traversal", "/tmp/../etc/backup.jsonl", config.DefaultConfig()},
		{"no extension", "/tmp/backup", unsafe},
		{"json extension", "/tmp/backup.json", unsafe},
		{"outside allowed dirs", "/tmp/backup.jsonl", config.DefaultConfig()},
		{"empty", "", config.DefaultConfig()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, PathCheckWrite, tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	existing := filepath.Join(dir, "in.jsonl")
	writeFile(t, existing)

	assert.NoError(t, ValidatePath(existing, PathCheckRead, cfg))
	assert.NoError(t, ValidatePath(filepath.Join(dir, "out.jsonl"), PathCheckWrite, cfg))
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	inside := filepath.Join(dir, "in.jsonl")
	writeFile(t, inside)
	assert.NoError(t, ValidatePath(inside, PathCheckRead, cfg))

	other := filepath.Join(t.TempDir(), "other.jsonl")
	writeFile(t, other)
	assert.Error(t, ValidatePath(other, PathCheckRead, cfg))
}

func TestValidatePath_NestedRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	nested := filepath.Join(sub, "x.jsonl")
	writeFile(t, nested)

	for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
		err := ValidatePath(nested, mode, cfg)
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
	}
}

func TestValidatePath_FileNotFound(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	err := ValidatePath(filepath.Join(t.TempDir(), "missing.jsonl"), PathCheckRead, cfg)
	assert.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "secret.jsonl")
	writeFile(t, target)
	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	allowed := config.DefaultConfig()
	allowed.AllowedPaths = []string{dir}
	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true

	for _, cfg := range []*config.Config{allowed, unsafe} {
		for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
			err := ValidatePath(link, mode, cfg)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/home/user/file.jsonl", false},
		{"../file.jsonl", true},
		{"/home/../etc/passwd", true},
		{"./file.jsonl", false},
		{"/home/user/.hidden/file.jsonl", false},
		{"file..name.jsonl", false},
		{"/tmp/a/b/../c.jsonl", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, containsTraversal(tt.path))
		})
	}
}

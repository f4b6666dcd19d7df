package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultMaxK, cfg.MaxK)
	require.Equal(t, DefaultMaxBits, cfg.MaxBits)
	require.Equal(t, runtime.NumCPU(), cfg.Parallelism)
}

func TestLoadFillsOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsegen.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_k = 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxK)
	require.Equal(t, DefaultMaxBits, cfg.MaxBits)
	require.Equal(t, runtime.NumCPU(), cfg.Parallelism)
}

func TestLoadRejectsNonPositiveOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsegen.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_k = 0\nmax_bits = -1\nparallelism = 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxK, cfg.MaxK)
	require.Equal(t, DefaultMaxBits, cfg.MaxBits)
	require.Equal(t, runtime.NumCPU(), cfg.Parallelism)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsegen.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_k = [not valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDefaultEveryFieldSet(t *testing.T) {
	cfg := Default()
	require.Equal(t, DefaultMaxK, cfg.MaxK)
	require.Equal(t, DefaultMaxBits, cfg.MaxBits)
	require.Equal(t, runtime.NumCPU(), cfg.Parallelism)
}

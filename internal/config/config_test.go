package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T) (*pflag.FlagSet, map[string]*pflag.Flag) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.String("db", "quotaframe.db", "")
	fs.Bool("no-targets", false, "")
	return fs, map[string]*pflag.Flag{
		KeyLogLevel:        fs.Lookup("log-level"),
		KeyStorePath:       fs.Lookup("db"),
		KeySuppressTargets: fs.Lookup("no-targets"),
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "quotaframe.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: warn
  format: json
store:
  path: from-file.db
codec:
  suppress_targets: true
`), 0o644))

	// file only
	cfg, err := Load(file, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "from-file.db", cfg.Store.Path)
	assert.True(t, cfg.Codec.SuppressTargets)

	// env beats file
	t.Setenv("QUOTAFRAME_STORE_PATH", "from-env.db")
	cfg, err = Load(file, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Store.Path)

	// unset flags do not override
	fs, flags := newFlags(t)
	cfg, err = Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env.db", cfg.Store.Path)

	// set flags beat everything
	require.NoError(t, fs.Parse([]string{"--db", "from-flag.db", "--log-level", "debug"}))
	cfg, err = Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("QUOTAFRAME_LOG_FORMAT", "xml")
	t.Setenv("QUOTAFRAME_LOG_LEVEL", "loud")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "xml")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Store.Path = "  "
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.path")
}

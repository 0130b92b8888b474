package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("path", "p", ".", "")
	fs.StringP("prefix", "e", "", "")
	fs.String("sqlite", "", "")
	fs.String("log-level", "info", "")
	fs.String("log-file", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", testFlags())
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Path)
	assert.Equal(t, "", cfg.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "kaextract.yaml")
	require.NoError(t, os.WriteFile(file, []byte("path: /from/file\nprefix: alg\nlog:\n  level: debug\n"), 0o644))

	t.Setenv("KAEXTRACT_PREFIX", "geo")
	t.Setenv("KAEXTRACT_LOG_FILE", "/tmp/run.log")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--path", "/from/flag"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Path, "explicit flag wins")
	assert.Equal(t, "geo", cfg.Prefix, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "file beats default")
	assert.Equal(t, "/tmp/run.log", cfg.Log.File)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := &Config{Path: "  "}
	assert.Error(t, c.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightminer/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 5, c.Explain.K)
	assert.InDelta(t, 0.8, c.Explain.Threshold, 1e-12)
	assert.Equal(t, 4, c.Explain.Workers)
	assert.Equal(t, 3, c.BuildOptions().MaxDimensions)
	assert.Equal(t, 4, c.SessionConfig().Workers)
	assert.Equal(t, 5, c.ExplainOptions().K)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("explain:\n  k: 7\n  threshold: 0.6\nlog:\n  format: json\n"), 0o644))
	t.Setenv("INSIGHT_EXPLAIN_K", "9")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, c.Explain.K)
	assert.InDelta(t, 0.6, c.Explain.Threshold, 1e-12)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"zero k", "explain.k", 0},
		{"zero workers", "explain.workers", 0},
		{"negative threshold", "explain.threshold", -0.1},
		{"unknown format", "log.format", "xml"},
		{"unknown level", "log.level", "LOUD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := LoadWithViper(v)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

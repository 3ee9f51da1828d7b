package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
database:
  path: data/archive.db
  busy_timeout: 10s
catalog:
  path: catalog.yaml
sql:
  template_dir: custom/sql
  write_executed: false
logging:
  level: info
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/dbflow.yaml", []byte(sampleConfig), 0644))

	cfg, err := Load(fs, "/project/dbflow.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/project", "data/archive.db"), cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, filepath.Join("/project", "catalog.yaml"), cfg.Catalog.Path)
	assert.Equal(t, filepath.Join("/project", "custom/sql"), cfg.SQL.TemplateDir)
	assert.Equal(t, filepath.Join("/project", "_sql_executed"), cfg.SQL.ExecutedDir)
	assert.False(t, cfg.ShouldWriteExecuted())
	assert.Equal(t, 4326, cfg.Spatial.DefaultSRID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadInvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/dbflow.yaml", []byte("database: [unclosed"), 0644))

	_, err := Load(fs, "/p/dbflow.yaml")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	t.Run("finds file in parent directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/work/dbflow.yaml", []byte(sampleConfig), 0644))
		require.NoError(t, fs.MkdirAll("/work/a/b", 0755))

		cfg, path, err := Discover(fs, "/work/a/b", DefaultSearchLevels)
		require.NoError(t, err)
		assert.Equal(t, "/work/dbflow.yaml", path)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("search is bounded", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/work/dbflow.yaml", []byte(sampleConfig), 0644))

		start := "/work/1/2/3/4/5/6"
		cfg, path, err := Discover(fs, start, 5)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, filepath.Join(start, "dbflow.db"), cfg.Database.Path)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg, path, err := Discover(fs, "/empty", DefaultSearchLevels)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.True(t, cfg.ShouldWriteExecuted())
		assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	})

	t.Run("alternate file name", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/alt/.dbflow.yaml", []byte("logging:\n  level: debug\n"), 0644))

		cfg, path, err := Discover(fs, "/alt", 0)
		require.NoError(t, err)
		assert.Equal(t, "/alt/.dbflow.yaml", path)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestResolveEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/env/custom.yaml", []byte("logging:\n  level: error\n"), 0644))
	t.Setenv(EnvConfigPath, "/env/custom.yaml")

	cfg, path, err := Resolve(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "/env/custom.yaml", path)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Logging.Level = "debug"

	require.NoError(t, Save(fs, cfg, "/out/dbflow.yaml"))

	loaded, err := Load(fs, "/out/dbflow.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, cfg.Database.BusyTimeout, loaded.Database.BusyTimeout)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{EnvTripleStoreServer, EnvTripleStoreRepo, EnvTripleStoreUser,
		EnvTripleStorePassword, EnvRedisURL, EnvJWTSecret} {
		os.Unsetenv(key)
	}
	cfg := FromEnv()
	assert.Equal(t, "http://localhost:7200", cfg.TripleStore.Server)
	assert.Equal(t, "oldap", cfg.TripleStore.Repo)
	assert.Empty(t, cfg.TripleStore.User)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	os.Setenv(EnvTripleStoreServer, "http://graphdb:7200")
	os.Setenv(EnvTripleStoreRepo, "myrepo")
	os.Setenv(EnvTripleStoreUser, "admin")
	os.Setenv(EnvTripleStorePassword, "pw")
	os.Setenv(EnvRedisURL, "redis://cache:6379")
	os.Setenv(EnvJWTSecret, "sekrit")
	defer func() {
		for _, key := range []string{EnvTripleStoreServer, EnvTripleStoreRepo, EnvTripleStoreUser,
			EnvTripleStorePassword, EnvRedisURL, EnvJWTSecret} {
			os.Unsetenv(key)
		}
	}()

	cfg := FromEnv()
	assert.Equal(t, "http://graphdb:7200", cfg.TripleStore.Server)
	assert.Equal(t, "myrepo", cfg.TripleStore.Repo)
	assert.Equal(t, "admin", cfg.TripleStore.User)
	assert.Equal(t, "pw", cfg.TripleStore.Password)
	assert.Equal(t, "redis://cache:6379", cfg.RedisURL)
	assert.Equal(t, "sekrit", cfg.JWTSecret)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oldap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ts:
  server: http://filehost:7200
  repo: filerepo
jwt:
  secret: from-file
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://filehost:7200", cfg.TripleStore.Server)
	assert.Equal(t, "filerepo", cfg.TripleStore.Repo)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestEnvConfigHelpers(t *testing.T) {
	os.Setenv("UNIT_PORT", "7201")
	os.Setenv("UNIT_VERBOSE", "true")
	os.Setenv("UNIT_TIMEOUT", "30s")
	defer func() {
		os.Unsetenv("UNIT_PORT")
		os.Unsetenv("UNIT_VERBOSE")
		os.Unsetenv("UNIT_TIMEOUT")
	}()

	env := NewEnvConfig("UNIT")
	assert.Equal(t, 7201, env.GetInt("PORT", 0))
	assert.True(t, env.GetBool("VERBOSE", false))
	assert.Equal(t, 30*time.Second, env.GetDuration("TIMEOUT", 0))
	assert.Equal(t, "fallback", env.GetString("MISSING", "fallback"))
}

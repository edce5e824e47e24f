package config

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.SecretKey)
	assert.Empty(t, c.MasterKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, BackendPostgres, c.TokenBackend)
	assert.Equal(t, BackendPostgres, c.SecretBackend)
	assert.Equal(t, 5*time.Second, c.DatabaseQueryTimeout)
	assert.Equal(t, time.Hour, c.TokenCleanupInterval)
	assert.Equal(t, "json", c.LogFormat)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.SecretKey = "s"
		c.MasterKey = "k"
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.SecretKey = ""
	assert.ErrorIs(t, c.Validate(), common.ErrConfigurationMissing)

	c = valid()
	c.MasterKey = ""
	assert.ErrorIs(t, c.Validate(), common.ErrConfigurationMissing)

	c = valid()
	c.TokenBackend = "memcached"
	assert.Error(t, c.Validate())

	c = valid()
	c.SecretBackend = "redis"
	assert.Error(t, c.Validate())

	c = valid()
	c.AccessTokenValidityDuration = 0
	assert.Error(t, c.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_grpc": ":7000",
		"secret_key":         "from-json",
		"master_key":         "json-master",
	})

	env := envMap(map[string]string{
		"LIVEDESK_SECRET_KEY":       "from-env",
		"LIVEDESK_ACCESS_TOKEN_TTL": "5m",
		"LIVEDESK_REDIS_DB":         "3",
		"LIVEDESK_DEBUG":            "true",
	})

	cfg, err := Load([]string{"-c", path, "-a", ":8000"}, env)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.EndpointAddrGRPC, "flags win over json")
	assert.Equal(t, "from-env", cfg.SecretKey, "env wins over json")
	assert.Equal(t, "json-master", cfg.MasterKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.Debug)
	assert.Equal(t, BackendPostgres, cfg.TokenBackend, "defaults survive")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(nil, envMap(map[string]string{"LIVEDESK_REFRESH_TOKEN_TTL": "forever"}))
	assert.ErrorContains(t, err, "LIVEDESK_REFRESH_TOKEN_TTL")

	_, err = Load([]string{"-config", "/does/not/exist.json"}, nil)
	assert.Error(t, err)

	_, err = Load([]string{"-t", "x"}, nil)
	assert.Error(t, err)
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, cfg)
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	assert.Contains(t, names, "LIVEDESK_MASTER_KEY")
	assert.Contains(t, names, "LIVEDESK_SECRET_KEY")
	assert.Contains(t, names, "LIVEDESK_DATABASE_DSN")
	assert.Contains(t, names, "LIVEDESK_REDIS_PASSWORD")
	assert.Len(t, names, len(envVars))
}

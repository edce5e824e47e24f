package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "LIVEDESK_"

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func stringVar(dst func(c *Config) *string) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func durationVar(dst func(c *Config) *time.Duration) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envVars = []envVar{
	{"GRPC_ADDR", stringVar(func(c *Config) *string { return &c.EndpointAddrGRPC })},
	{"DATABASE_DSN", stringVar(func(c *Config) *string { return &c.DatabaseDSN })},
	{"SECRET_KEY", stringVar(func(c *Config) *string { return &c.SecretKey })},
	{"MASTER_KEY", stringVar(func(c *Config) *string { return &c.MasterKey })},
	{"ACCESS_TOKEN_TTL", durationVar(func(c *Config) *time.Duration { return &c.AccessTokenValidityDuration })},
	{"REFRESH_TOKEN_TTL", durationVar(func(c *Config) *time.Duration { return &c.RefreshTokenValidityDuration })},
	{"TOKEN_BACKEND", stringVar(func(c *Config) *string { return &c.TokenBackend })},
	{"REDIS_ADDR", stringVar(func(c *Config) *string { return &c.RedisAddr })},
	{"REDIS_PASSWORD", stringVar(func(c *Config) *string { return &c.RedisPassword })},
	{"REDIS_DB", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.RedisDB = n
		return nil
	}},
	{"SECRET_BACKEND", stringVar(func(c *Config) *string { return &c.SecretBackend })},
	{"S3_ROOT_USER", stringVar(func(c *Config) *string { return &c.S3RootUser })},
	{"S3_ROOT_PASSWORD", stringVar(func(c *Config) *string { return &c.S3RootPassword })},
	{"S3_BUCKET", stringVar(func(c *Config) *string { return &c.S3Bucket })},
	{"S3_REGION", stringVar(func(c *Config) *string { return &c.S3Region })},
	{"S3_BASE_ENDPOINT", stringVar(func(c *Config) *string { return &c.S3BaseEndpoint })},
	{"S3_PREFIX", stringVar(func(c *Config) *string { return &c.S3Prefix })},
	{"TOKEN_CLEANUP_INTERVAL", durationVar(func(c *Config) *time.Duration { return &c.TokenCleanupInterval })},
	{"DATABASE_QUERY_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.DatabaseQueryTimeout })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.LogFormat })},
	{"DEBUG", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Debug = b
		return nil
	}},
}

// EnvNames returns the full names of every variable the server reads.
func EnvNames() []string {
	names := make([]string, 0, len(envVars))
	for _, ev := range envVars {
		names = append(names, EnvPrefix+ev.name)
	}
	return names
}

// parseEnv applies LIVEDESK_* variables found by lookup. Empty values are
// treated as unset.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.set(config, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, ev.name, err)
		}
	}
	return nil
}

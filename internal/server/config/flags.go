package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/livedesk/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-s", "-k", "-t", "-r",
	"-tb", "-ra", "-sb",
	"-u", "-p", "-b", "-g", "-e",
	"-l", "-debug",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-s string     access token signing secret
//	-k string     hex master encryption key
//	-t duration   access token validity (e.g., "15m")
//	-r duration   refresh token validity (e.g., "720h")
//	-tb string    refresh token backend: postgres | redis
//	-ra string    redis address
//	-sb string    secret config backend: postgres | s3
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string     log format: json | text | zap
//	-debug        enable debug logging
//
// args is filtered through flagx.FilterArgs first so that -c/-config and
// flags of other components do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "access token signing secret")
	fs.StringVar(&config.MasterKey, "k", config.MasterKey, "hex master encryption key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")

	fs.StringVar(&config.TokenBackend, "tb", config.TokenBackend, "refresh token backend")
	fs.StringVar(&config.RedisAddr, "ra", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretBackend, "sb", config.SecretBackend, "secret config backend")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug logging")

	return fs.Parse(args)
}

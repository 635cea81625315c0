package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-l", "-r", "-b", "-e", "-env", "-password-algorithm"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      access token validity, minutes
//	-l string   log level
//	-r string   Redis address for status events
//	-b string   S3 bucket for images
//	-e string   S3 base endpoint
//	-env string deployment environment
//	-password-algorithm string   bcrypt or pbkdf2_sha256
//
// args is filtered through flagx.FilterArgs first so flags owned by other
// layers (-c) do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("cityfix", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	ttl := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.Environment, "env", config.Environment, "deployment environment")
	fs.StringVar(&config.PasswordAlgorithm, "password-algorithm", config.PasswordAlgorithm, "password hashing algorithm")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenTTL = time.Duration(*ttl) * time.Minute
	return nil
}

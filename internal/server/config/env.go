package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotEnvFile is the file read by loadDotEnv.
var dotEnvFile = ".env"

// lookupEnv is the process environment lookup; tests replace it.
var lookupEnv = os.LookupEnv

// loadDotEnv reads dotEnvFile if present. Its values are consulted only for
// keys missing from the process environment.
func loadDotEnv() map[string]string {
	values, err := godotenv.Read(dotEnvFile)
	if err != nil {
		return nil
	}
	return values
}

// parseEnv overlays cfg with environment variables. Keys present in the
// environment shadow the same keys from dotenv.
func parseEnv(cfg *Config, dotenv map[string]string, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	str("APP_ENV", &cfg.Environment)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("GRPC_HEALTH_ADDR", &cfg.GRPCHealthAddr)
	str("DATABASE_DSN", &cfg.DatabaseDSN)
	str("JWT_SECRET_KEY", &cfg.SecretKey)
	str("PASSWORD_ALGORITHM", &cfg.PasswordAlgorithm)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("EVENTS_QUEUE", &cfg.EventsQueue)
	str("S3_ROOT_USER", &cfg.S3RootUser)
	str("S3_ROOT_PASSWORD", &cfg.S3RootPassword)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)

	if v, ok := get("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		m, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		cfg.AccessTokenTTL = time.Duration(m) * time.Minute
	}
	if v, ok := get("REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	if v, ok := get("IMAGE_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("IMAGE_MAX_BYTES: %w", err)
		}
		cfg.ImageMaxBytes = n
	}

	return nil
}

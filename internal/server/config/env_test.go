package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func Test_parseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env := map[string]string{
		"APP_ENV":                     "staging",
		"HTTP_ADDR":                   ":9999",
		"JWT_SECRET_KEY":              "env-secret-0123456789",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "15",
		"REDIS_DB":                    "3",
		"IMAGE_MAX_BYTES":             "2048",
	}
	dotenv := map[string]string{
		"HTTP_ADDR": ":1111",
		"S3_BUCKET": "from-dotenv",
	}

	require.NoError(t, parseEnv(cfg, dotenv, mapLookup(env)))

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, ":9999", cfg.HTTPAddr, "environment shadows dotenv")
	assert.Equal(t, "from-dotenv", cfg.S3Bucket)
	assert.Equal(t, "env-secret-0123456789", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, int64(2048), cfg.ImageMaxBytes)
}

func Test_parseEnv_BadNumbers(t *testing.T) {
	for _, key := range []string{"ACCESS_TOKEN_EXPIRE_MINUTES", "REDIS_DB", "IMAGE_MAX_BYTES"} {
		t.Run(key, func(t *testing.T) {
			err := parseEnv(&Config{}, nil, mapLookup(map[string]string{key: "abc"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func Test_loadDotEnv(t *testing.T) {
	orig := dotEnvFile
	t.Cleanup(func() { dotEnvFile = orig })

	dir := t.TempDir()
	dotEnvFile = writeTempFile(t, dir, ".env", "LOG_LEVEL=debug\nREDIS_ADDR=localhost:6379\n")

	values := loadDotEnv()
	assert.Equal(t, "debug", values["LOG_LEVEL"])
	assert.Equal(t, "localhost:6379", values["REDIS_ADDR"])

	dotEnvFile = filepath.Join(dir, "absent.env")
	assert.Nil(t, loadDotEnv())
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/flagx"
	"github.com/dmitrijs2005/cityfix/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a config file. Durations accept both
// "24h" style strings and integer nanoseconds. Zero values leave the current
// setting untouched.
type FileConfig struct {
	Environment       string         `json:"environment" yaml:"environment"`
	HTTPAddr          string         `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr    string         `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	DatabaseDSN       string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey         string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL    timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	PasswordAlgorithm string         `json:"password_algorithm" yaml:"password_algorithm"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
	LogFormat         string         `json:"log_format" yaml:"log_format"`
	RedisAddr         string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword     string         `json:"redis_password" yaml:"redis_password"`
	RedisDB           *int           `json:"redis_db" yaml:"redis_db"`
	EventsQueue       string         `json:"events_queue" yaml:"events_queue"`
	S3RootUser        string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	ImageMaxBytes     int64          `json:"image_max_bytes" yaml:"image_max_bytes"`
}

// parseFile overlays cfg with the file given by -c/-config in args. The format
// is picked by extension: .yaml and .yml are YAML, anything else is JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.Environment, fc.Environment)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCHealthAddr, fc.GRPCHealthAddr)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	if fc.AccessTokenTTL.Duration > 0 {
		cfg.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	setString(&cfg.PasswordAlgorithm, fc.PasswordAlgorithm)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setString(&cfg.RedisPassword, fc.RedisPassword)
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	setString(&cfg.EventsQueue, fc.EventsQueue)
	setString(&cfg.S3RootUser, fc.S3RootUser)
	setString(&cfg.S3RootPassword, fc.S3RootPassword)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	if fc.ImageMaxBytes > 0 {
		cfg.ImageMaxBytes = fc.ImageMaxBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/parametrik/internal/flagx"
	"github.com/dmitrijs2005/parametrik/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "90d", "1h",
// "60s" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc"`
	DatabaseDSN       string         `json:"database_dsn"`
	DBMaxOpenConns    int            `json:"db_max_open_conns"`
	DBMaxIdleConns    int            `json:"db_max_idle_conns"`
	DBConnMaxLifetime timex.Duration `json:"db_conn_max_lifetime"`
	SecretKey         string         `json:"secret_key"`
	SecretKeyFile     string         `json:"secret_key_file"`
	SecretKeyURI      string         `json:"secret_key_uri"`
	SigningAlgorithm  string         `json:"signing_algorithm"`
	TokenValidity     timex.Duration `json:"token_validity"`
	TokenLeeway       timex.Duration `json:"token_leeway"`
	WorkerPoolSize    int            `json:"worker_pool_size"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:  c.EndpointAddrHTTP,
		EndpointAddrGRPC:  c.EndpointAddrGRPC,
		DatabaseDSN:       c.DatabaseDSN,
		DBMaxOpenConns:    c.DBMaxOpenConns,
		DBMaxIdleConns:    c.DBMaxIdleConns,
		DBConnMaxLifetime: timex.Duration{Duration: c.DBConnMaxLifetime},
		SecretKey:         c.SecretKey,
		SecretKeyFile:     c.SecretKeyFile,
		SecretKeyURI:      c.SecretKeyURI,
		SigningAlgorithm:  c.SigningAlgorithm,
		TokenValidity:     timex.Duration{Duration: c.TokenValidity},
		TokenLeeway:       timex.Duration{Duration: c.TokenLeeway},
		WorkerPoolSize:    c.WorkerPoolSize,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
		S3AccessKey:       c.S3AccessKey,
		S3SecretKey:       c.S3SecretKey,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.DBMaxOpenConns = j.DBMaxOpenConns
	c.DBMaxIdleConns = j.DBMaxIdleConns
	c.DBConnMaxLifetime = j.DBConnMaxLifetime.Duration
	c.SecretKey = j.SecretKey
	c.SecretKeyFile = j.SecretKeyFile
	c.SecretKeyURI = j.SecretKeyURI
	c.SigningAlgorithm = j.SigningAlgorithm
	c.TokenValidity = j.TokenValidity.Duration
	c.TokenLeeway = j.TokenLeeway.Duration
	c.WorkerPoolSize = j.WorkerPoolSize
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
}

// parseJson overlays the JSON file named by -c/-config in args, if any.
// Keys missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.apply(config)
	return nil
}

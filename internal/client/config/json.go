package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/parametrik/internal/flagx"
	"github.com/dmitrijs2005/parametrik/internal/timex"
)

type JsonConfig struct {
	ServerURL       string         `json:"server_url"`
	CredentialsPath string         `json:"credentials_path"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	jc := JsonConfig{
		ServerURL:       cfg.ServerURL,
		CredentialsPath: cfg.CredentialsPath,
		RequestTimeout:  timex.Duration{Duration: cfg.RequestTimeout},
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.CredentialsPath = jc.CredentialsPath
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	return nil
}

func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

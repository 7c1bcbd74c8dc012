package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	ServerURL       string        `env:"PARAMETRIK_URL"`
	CredentialsPath string        `env:"PARAMETRIK_CREDENTIALS"`
	RequestTimeout  time.Duration `env:"PARAMETRIK_TIMEOUT"`
	Verbose         bool          `env:"PARAMETRIK_VERBOSE"`
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3001"
	c.CredentialsPath = ""
	c.RequestTimeout = 30 * time.Second
	c.Verbose = false
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// LoadConfig applies defaults, JSON, environment and flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

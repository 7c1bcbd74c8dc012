package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/parametrik/internal/flagx"
	"github.com/dmitrijs2005/parametrik/internal/timex"
)

func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("para", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.CredentialsPath, "f", cfg.CredentialsPath, "credential cache file")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log request errors")
	fs.Func("t", "request timeout", func(s string) error {
		d, err := timex.ParseDuration(s)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})

	return fs.Parse(flagx.FilterArgs(args, []string{"-u", "-f", "-t", "-v"}))
}

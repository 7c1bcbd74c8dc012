package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/parametrik/internal/flagx"
	"github.com/dmitrijs2005/parametrik/internal/timex"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-k", "-u", "-alg", "-t", "-w", "-l"}

// parseFlags overlays command-line flags:
//
//	-a string   HTTP bind address (":3001")
//	-g string   gRPC bind address (":50051")
//	-d string   PostgreSQL DSN
//	-s string   signing secret
//	-k string   signing key file
//	-u string   signing key S3 URI (s3://bucket/key)
//	-alg string signing algorithm (HS256|RS256)
//	-t duration token validity ("90d", "2160h")
//	-w int      worker pool size
//	-l string   log level
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "signing secret")
	fs.StringVar(&config.SecretKeyFile, "k", config.SecretKeyFile, "signing key file")
	fs.StringVar(&config.SecretKeyURI, "u", config.SecretKeyURI, "signing key s3:// URI")
	fs.StringVar(&config.SigningAlgorithm, "alg", config.SigningAlgorithm, "signing algorithm")
	fs.Func("t", "token validity", func(s string) error {
		d, err := timex.ParseDuration(s)
		if err != nil {
			return err
		}
		config.TokenValidity = d
		return nil
	})
	fs.IntVar(&config.WorkerPoolSize, "w", config.WorkerPoolSize, "worker pool size")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, serverFlags))
}

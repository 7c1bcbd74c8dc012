package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/parametrik/internal/client/client"
	"github.com/dmitrijs2005/parametrik/internal/client/config"
	"github.com/dmitrijs2005/parametrik/internal/client/services"
	"github.com/dmitrijs2005/parametrik/internal/filex"
	"github.com/dmitrijs2005/parametrik/internal/logging"
)

const (
	appDirName     = "parametrik"
	cacheFileName  = "credentials.db"
	genericFailure = "Something went wrong"
)

// Seams for tests.
var (
	newClient = func(cfg *config.Config) client.Client {
		return client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
	}
	openCache      = client.InitDatabase
	ensureCacheDir = func() (string, error) { return filex.EnsureConfigDir(appDirName) }
)

var errUsage = errors.New("usage: para [-u URL] [-c config.json] [-f cache.db] [-t timeout] [-v] <register|login|logout>")

type App struct {
	cfg    *config.Config
	auth   services.AuthService
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	logger logging.Logger
}

// Run executes one para command and returns the process exit status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	command, cmdArgs, err := splitCommand(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	level := "error"
	if cfg.Verbose {
		level = "debug"
	}
	logger := logging.New(stderr, "text", level)

	db := openCredentialCache(ctx, cfg, logger)
	if db != nil {
		defer db.Close()
	}

	a := &App{
		cfg:    cfg,
		auth:   services.NewAuthService(newClient(cfg), db),
		reader: bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
		logger: logger,
	}

	switch command {
	case "register":
		err = a.Register(ctx, cmdArgs)
	case "login":
		err = a.Login(ctx, cmdArgs)
	case "logout":
		err = a.Logout(ctx)
	default:
		err = errUsage
	}

	if err != nil {
		fmt.Fprintln(stderr, a.message(ctx, err))
		return 1
	}
	return 0
}

// splitCommand skips the global flags and returns the command with its own
// arguments.
func splitCommand(args []string) (string, []string, error) {
	fs := flag.NewFlagSet("para", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range []string{"u", "c", "config", "f", "t"} {
		fs.String(name, "", "")
	}
	fs.Bool("v", false, "")

	if err := fs.Parse(args); err != nil {
		return "", nil, fmt.Errorf("%w\n%w", err, errUsage)
	}
	if fs.NArg() == 0 {
		return "", nil, errUsage
	}
	return fs.Arg(0), fs.Args()[1:], nil
}

// openCredentialCache returns nil when no cache can be used; the token is
// then printed instead of stored.
func openCredentialCache(ctx context.Context, cfg *config.Config, logger logging.Logger) *sql.DB {
	path := cfg.CredentialsPath
	if path == "" {
		dir, err := ensureCacheDir()
		if err != nil {
			logger.Debug(ctx, "no config directory for credential cache", "error", err)
			return nil
		}
		path = filepath.Join(dir, cacheFileName)
	}

	db, err := openCache(ctx, path)
	if err != nil {
		logger.Warn(ctx, "credential cache unavailable", "path", path, "error", err)
		return nil
	}
	return db
}

// message turns err into the line shown to the user.
func (a *App) message(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return errUsage.Error()
	case errors.Is(err, client.ErrAlreadyRegistered):
		return "You are already registered. Use `para login` instead."
	case errors.Is(err, client.ErrUnauthorized):
		return "Invalid email or password"
	case errors.Is(err, services.ErrMissingCredentials):
		return services.ErrMissingCredentials.Error()
	case errors.Is(err, client.ErrUnavailable):
		a.logger.Debug(ctx, "request failed", "url", a.cfg.ServerURL, "error", err)
		return fmt.Sprintf("Server %s is unavailable", a.cfg.ServerURL)
	default:
		a.logger.Debug(ctx, "command failed", "error", err)
		return genericFailure
	}
}

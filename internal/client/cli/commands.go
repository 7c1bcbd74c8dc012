package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
)

// Register prompts for the account details and creates the account.
func (a *App) Register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	name, err := GetSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetConfirmedPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	if _, err := a.auth.Register(ctx, name, email, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "User registered")
	return nil
}

// Login obtains a token and caches it, or prints it when there is no cache.
func (a *App) Login(ctx context.Context, args []string) error {
	var email, password string
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "e", "", "email")
	fs.StringVar(&password, "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var err error
	if email == "" {
		if email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = GetPassword(a.reader, "Password", a.out); err != nil {
			return err
		}
	}

	token, cached, err := a.auth.Login(ctx, email, password)
	if err != nil && token == "" {
		return err
	}
	if err != nil {
		a.logger.Warn(ctx, "could not store access token", "error", err)
	}

	if !cached {
		fmt.Fprintln(a.out, token)
		return nil
	}
	fmt.Fprintln(a.out, "Logged in")
	return nil
}

// Logout removes the cached token.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Package client talks to the parametrik auth server on behalf of the CLI
// and bootstraps the local credential cache.
//
// HTTPClient maps response statuses to sentinel errors that callers match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrAlreadyRegistered and
// ErrUnexpectedStatus. InitDatabase opens the SQLite cache and applies its
// embedded goose migrations.
package client

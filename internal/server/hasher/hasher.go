// Package hasher produces and checks self-describing password hashes.
//
// Hashing is deliberately slow (tens of milliseconds with the default
// parameters); callers on a request path run it through the worker pool.
package hasher

import "errors"

// Hasher hashes passwords and verifies plaintexts against stored hashes.
type Hasher interface {
	// Hash returns an encoded hash that embeds the algorithm, its cost
	// parameters and a fresh random salt.
	Hash(password string) (string, error)
	// Verify reports whether password matches encoded. Any malformed or
	// foreign encoding yields (false, err); it never partially succeeds.
	Verify(password, encoded string) (bool, error)
}

var (
	ErrInvalidHash          = errors.New("invalid hash format")
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	ErrInvalidParams        = errors.New("invalid hash parameters")
)

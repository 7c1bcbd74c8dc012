package hasher

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"golang.org/x/crypto/scrypt"
)

const algorithmID = "scrypt"

// Params are the scrypt cost parameters. N = 2^LogN.
type Params struct {
	LogN       uint8
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultParams matches the production cost: N=32768, r=8, p=1.
var DefaultParams = Params{
	LogN:       15,
	R:          8,
	P:          1,
	SaltLength: 16,
	KeyLength:  32,
}

const (
	minLogN       = 1
	maxLogN       = 20
	minSaltLength = 8
	minKeyLength  = 16

	// maxMemory caps 128*r*N, the scrypt working set.
	maxMemory = 256 << 20
)

// Scrypt implements Hasher with golang.org/x/crypto/scrypt. The encoded form
// is
//
//	$scrypt$ln=15,r=8,p=1$<salt>$<key>
//
// with salt and key in unpadded standard base64.
type Scrypt struct {
	params Params
}

// NewScrypt validates params and returns a hasher that uses them for new
// hashes. Verification always uses the parameters stored in the hash.
func NewScrypt(params Params) (*Scrypt, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if params.SaltLength < minSaltLength || params.KeyLength < minKeyLength {
		return nil, fmt.Errorf("%w: salt >= %d and key >= %d bytes required", ErrInvalidParams, minSaltLength, minKeyLength)
	}
	return &Scrypt{params: params}, nil
}

func (s *Scrypt) Hash(password string) (string, error) {
	salt, err := common.GenerateRandBytes(s.params.SaltLength)
	if err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, 1<<s.params.LogN, s.params.R, s.params.P, s.params.KeyLength)
	if err != nil {
		return "", fmt.Errorf("scrypt: %w", err)
	}

	return fmt.Sprintf("$%s$ln=%d,r=%d,p=%d$%s$%s",
		algorithmID,
		s.params.LogN, s.params.R, s.params.P,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (s *Scrypt) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	candidate, err := scrypt.Key([]byte(password), salt, 1<<params.LogN, params.R, params.P, len(key))
	if err != nil {
		return false, fmt.Errorf("scrypt: %w", err)
	}

	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if parts[1] != algorithmID {
		return Params{}, nil, nil, ErrUnsupportedAlgorithm
	}

	params, err := parseParams(parts[2])
	if err != nil {
		return Params{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(salt) < minSaltLength {
		return Params{}, nil, nil, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) < minKeyLength {
		return Params{}, nil, nil, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}

	params.SaltLength = len(salt)
	params.KeyLength = len(key)
	return params, salt, key, nil
}

func parseParams(part string) (Params, error) {
	var (
		p                   Params
		seenN, seenR, seenP bool
	)

	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return p, ErrInvalidParams
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return p, ErrInvalidParams
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, ErrInvalidParams
		}
		switch k {
		case "ln":
			p.LogN = uint8(n)
			seenN = n >= 0 && n <= maxLogN
		case "r":
			p.R = n
			seenR = true
		case "p":
			p.P = n
			seenP = true
		default:
			return p, ErrInvalidParams
		}
	}

	if !seenN || !seenR || !seenP {
		return p, ErrInvalidParams
	}
	return p, validateParams(p)
}

func validateParams(p Params) error {
	if p.LogN < minLogN || p.LogN > maxLogN {
		return fmt.Errorf("%w: ln must be in [%d,%d]", ErrInvalidParams, minLogN, maxLogN)
	}
	if p.R < 1 || p.P < 1 || uint64(p.R)*uint64(p.P) >= 1<<30 {
		return fmt.Errorf("%w: r and p must be positive and r*p < 2^30", ErrInvalidParams)
	}
	if 128*uint64(p.R)<<uint(p.LogN) > maxMemory {
		return fmt.Errorf("%w: memory cost exceeds %d bytes", ErrInvalidParams, maxMemory)
	}
	return nil
}

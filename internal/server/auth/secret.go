package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Secret is the process-wide signing material. It is built once at startup
// and only read afterwards, so one value is shared by all requests.
type Secret struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

var ErrEmptySecret = errors.New("empty signing secret")

// NewHMACSecret returns an HS256 secret over a copy of key.
func NewHMACSecret(key []byte) (Secret, error) {
	if len(key) == 0 {
		return Secret{}, ErrEmptySecret
	}
	k := append([]byte(nil), key...)
	return Secret{method: jwt.SigningMethodHS256, signKey: k, verifyKey: k}, nil
}

// NewRSASecret returns an RS256 secret from a private key in PEM or DER
// form (PKCS#1 or PKCS#8). The verification key is derived from it.
func NewRSASecret(key []byte) (Secret, error) {
	if len(key) == 0 {
		return Secret{}, ErrEmptySecret
	}

	der := key
	if block, _ := pem.Decode(key); block != nil {
		der = block.Bytes
	}

	priv, err := parseRSAPrivateKey(der)
	if err != nil {
		return Secret{}, err
	}
	return Secret{method: jwt.SigningMethodRS256, signKey: priv, verifyKey: &priv.PublicKey}, nil
}

// NewSecret builds a secret for the named algorithm ("HS256" or "RS256").
func NewSecret(algorithm string, key []byte) (Secret, error) {
	switch algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		return NewHMACSecret(key)
	case jwt.SigningMethodRS256.Alg():
		return NewRSASecret(key)
	default:
		return Secret{}, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
}

// Algorithm returns the JWS "alg" value, empty for the zero Secret.
func (s Secret) Algorithm() string {
	if s.method == nil {
		return ""
	}
	return s.method.Alg()
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rk, nil
}

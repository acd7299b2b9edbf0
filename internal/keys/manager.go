// Package keys loads and holds the RSA keypair used to sign access tokens
// and to publish the verification key. Key material is read once at startup;
// a process that cannot load its keys must not serve traffic.
package keys

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const defaultKeyID = "auth-key-1"

// Manager holds an immutable RSA signing keypair and its key id.
type Manager struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	keyID   string
}

// Load reads PEM-encoded key material from the given file paths.
// keyID tags issued tokens and the JWKS entry; empty selects the default.
func Load(privatePath, publicPath, keyID string) (*Manager, error) {
	if strings.TrimSpace(privatePath) == "" || strings.TrimSpace(publicPath) == "" {
		return nil, errors.New("signing key paths not configured")
	}

	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", privatePath, err)
	}
	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", publicPath, err)
	}

	return FromPEM(privPEM, pubPEM, keyID)
}

// FromPEM parses PEM-encoded RSA key material directly.
func FromPEM(privPEM, pubPEM []byte, keyID string) (*Manager, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	if priv.PublicKey.N.Cmp(pub.N) != 0 || priv.PublicKey.E != pub.E {
		return nil, errors.New("public key does not match private key")
	}

	return FromKeyPair(priv, keyID), nil
}

// FromKeyPair wraps an already-parsed private key. The public half is taken
// from the private key.
func FromKeyPair(priv *rsa.PrivateKey, keyID string) *Manager {
	if strings.TrimSpace(keyID) == "" {
		keyID = defaultKeyID
	}
	return &Manager{
		private: priv,
		public:  &priv.PublicKey,
		keyID:   keyID,
	}
}

// Private returns the signing key.
func (m *Manager) Private() *rsa.PrivateKey { return m.private }

// Public returns the verification key.
func (m *Manager) Public() *rsa.PublicKey { return m.public }

// KeyID returns the stable identifier written into token headers and JWKS.
func (m *Manager) KeyID() string { return m.keyID }

// PublicComponents returns the modulus and exponent of the verification key
// as unpadded base64url strings, the encoding JWKS requires.
func (m *Manager) PublicComponents() (n, e string) {
	n = base64.RawURLEncoding.EncodeToString(m.public.N.Bytes())
	e = base64.RawURLEncoding.EncodeToString(big.NewInt(int64(m.public.E)).Bytes())
	return n, e
}

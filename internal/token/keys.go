package token

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/model"
)

// SigningKey is the active RS256 key pair and its key id.
type SigningKey struct {
	ID      string
	Private *rsa.PrivateKey
}

func (k *SigningKey) Public() *rsa.PublicKey { return &k.Private.PublicKey }

// KeySource yields the active signing key.
type KeySource interface {
	SigningKey() (*SigningKey, error)
}

// KeyID derives a stable key id from the public key: base64url SHA-256 of
// its PKIX DER encoding.
func KeyID(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// NewSigningKey wraps priv with its derived key id.
func NewSigningKey(priv *rsa.PrivateKey) (*SigningKey, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key is not configured", model.ErrConfig)
	}
	kid, err := KeyID(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfig, err)
	}
	return &SigningKey{ID: kid, Private: priv}, nil
}

// StaticKeySource always returns the same key.
type StaticKeySource struct {
	key *SigningKey
	err error
}

func NewStaticKeySource(priv *rsa.PrivateKey) *StaticKeySource {
	key, err := NewSigningKey(priv)
	return &StaticKeySource{key: key, err: err}
}

func (s *StaticKeySource) SigningKey() (*SigningKey, error) {
	return s.key, s.err
}

// FileKeySource reads a PEM private key from disk and re-reads it whenever
// the file's modification time or size changes.
type FileKeySource struct {
	path string

	mu      sync.RWMutex
	modTime time.Time
	size    int64
	current *SigningKey
}

func NewFileKeySource(path string) *FileKeySource {
	return &FileKeySource{path: path}
}

func (s *FileKeySource) SigningKey() (*SigningKey, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: private key file is not configured", model.ErrConfig)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat private key: %w", model.ErrConfig, err)
	}

	s.mu.RLock()
	current := s.current
	unchanged := current != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size
	s.mu.RUnlock()
	if unchanged {
		return current, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.current, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read private key: %w", model.ErrConfig, err)
	}

	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, err
	}

	s.current = key
	s.modTime = info.ModTime()
	s.size = info.Size()

	return key, nil
}

// ParsePrivateKey accepts PKCS#1 or PKCS#8 PEM.
func ParsePrivateKey(data []byte) (*SigningKey, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %w", model.ErrConfig, err)
	}
	return NewSigningKey(priv)
}

var errNoKeySource = errors.New("key source is not configured")

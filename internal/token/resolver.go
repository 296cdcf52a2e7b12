package token

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"auth-service/internal/model"
)

var ErrKeyNotFound = errors.New("signing key not found")

// KeyResolver returns the public key for a key id. An empty kid means the
// token did not name one.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeyResolver resolves against the local key source. Because the
// source re-reads rotated keys, so does the resolver.
type StaticKeyResolver struct {
	keys KeySource
}

var _ KeyResolver = (*StaticKeyResolver)(nil)

func NewStaticKeyResolver(keys KeySource) *StaticKeyResolver {
	return &StaticKeyResolver{keys: keys}
}

func (r *StaticKeyResolver) ResolveKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if r.keys == nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfig, errNoKeySource)
	}
	key, err := r.keys.SigningKey()
	if err != nil {
		return nil, err
	}
	if kid != "" && kid != key.ID {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key.Public(), nil
}

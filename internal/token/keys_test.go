package token

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-service/internal/model"
)

func TestFileKeySource_PicksUpRotation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "private.pem")
	first := newRSAKey(t)
	require.NoError(t, os.WriteFile(path, pemEncode(first), 0o600))

	source := NewFileKeySource(path)
	resolver := NewStaticKeyResolver(source)
	issuer := NewIssuer(source, testSecret, "")
	verifier := NewVerifier(resolver, testSecret, "")

	k1, err := source.SigningKey()
	require.NoError(t, err)

	cached, err := source.SigningKey()
	require.NoError(t, err)
	assert.Same(t, k1, cached)

	oldToken, err := issuer.IssueAccessToken(model.Principal{SubjectID: 1, Role: model.RoleCustomer})
	require.NoError(t, err)

	second := newRSAKey(t)
	require.NoError(t, os.WriteFile(path, pemEncode(second), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	k2, err := source.SigningKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1.ID, k2.ID)
	assert.Equal(t, second.PublicKey.N, k2.Public().N)

	newToken, err := issuer.IssueAccessToken(model.Principal{SubjectID: 1, Role: model.RoleCustomer})
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(context.Background(), newToken)
	assert.NoError(t, err)

	_, err = verifier.VerifyAccessToken(context.Background(), oldToken)
	assert.ErrorIs(t, err, model.ErrAuthentication)
}

func TestFileKeySource_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unset path", func(t *testing.T) {
		_, err := NewFileKeySource("").SigningKey()
		assert.ErrorIs(t, err, model.ErrConfig)
	})

	t.Run("not a pem", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.pem")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
		_, err := NewFileKeySource(path).SigningKey()
		assert.ErrorIs(t, err, model.ErrConfig)
	})
}

func TestKeyID_Stable(t *testing.T) {
	t.Parallel()

	key := newRSAKey(t)
	a, err := KeyID(&key.PublicKey)
	require.NoError(t, err)
	b, err := KeyID(&key.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestStaticKeyResolver_KidMismatch(t *testing.T) {
	t.Parallel()

	resolver := NewStaticKeyResolver(NewStaticKeySource(newRSAKey(t)))

	_, err := resolver.ResolveKey(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	pub, err := resolver.ResolveKey(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, pub)
}

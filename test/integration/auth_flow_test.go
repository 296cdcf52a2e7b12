//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestRegisterSelfRefreshLogout(t *testing.T) {
	srv := newServer(t)
	email := uniqueEmail()

	reg := srv.call(t, http.MethodPost, "/auth/register", registerBody(email))
	require.Equal(t, http.StatusCreated, reg.status, string(reg.body))

	var created idEnvelope
	reg.decode(t, &created)
	require.Positive(t, created.Data.ID)

	access := reg.cookies["accessToken"]
	refresh := reg.cookies["refreshToken"]
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Equal(t, 3600, access.MaxAge)
	assert.Equal(t, 31536000, refresh.MaxAge)
	assert.True(t, access.HttpOnly)

	self := srv.call(t, http.MethodGet, "/auth/self", nil, access)
	require.Equal(t, http.StatusOK, self.status)
	assert.Contains(t, string(self.body), email)
	assert.Contains(t, string(self.body), `"role":"customer"`)
	assert.NotContains(t, string(self.body), "password")

	rotated := srv.call(t, http.MethodPost, "/auth/refresh", nil, access, refresh)
	require.Equal(t, http.StatusOK, rotated.status, string(rotated.body))
	newAccess := rotated.cookies["accessToken"]
	newRefresh := rotated.cookies["refreshToken"]
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, refresh.Value, newRefresh.Value)

	// The consumed refresh token is dead.
	replay := srv.call(t, http.MethodPost, "/auth/refresh", nil, access, refresh)
	assert.Equal(t, http.StatusUnauthorized, replay.status)

	logout := srv.call(t, http.MethodPost, "/auth/logout", nil, newAccess, newRefresh)
	require.Equal(t, http.StatusOK, logout.status)
	require.NotNil(t, logout.cookies["accessToken"])
	assert.Equal(t, -1, logout.cookies["accessToken"].MaxAge)
	assert.Equal(t, -1, logout.cookies["refreshToken"].MaxAge)

	afterLogout := srv.call(t, http.MethodPost, "/auth/refresh", nil, newAccess, newRefresh)
	assert.Equal(t, http.StatusUnauthorized, afterLogout.status)

	again := srv.call(t, http.MethodPost, "/auth/logout", nil, newAccess, newRefresh)
	require.Equal(t, http.StatusOK, again.status)
	require.NotNil(t, again.cookies["refreshToken"])
	assert.Equal(t, -1, again.cookies["refreshToken"].MaxAge)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newServer(t)
	email := uniqueEmail()

	require.Equal(t, http.StatusCreated, srv.call(t, http.MethodPost, "/auth/register", registerBody(email)).status)

	dup := srv.call(t, http.MethodPost, "/auth/register", registerBody(email))
	require.Equal(t, http.StatusBadRequest, dup.status)

	var body errorEnvelope
	dup.decode(t, &body)
	assert.Equal(t, "email is already exist", body.Error.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newServer(t)
	email := uniqueEmail()
	require.Equal(t, http.StatusCreated, srv.call(t, http.MethodPost, "/auth/register", registerBody(email)).status)

	wrong := srv.call(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "wrong-password"})
	require.Equal(t, http.StatusBadRequest, wrong.status)
	assert.Empty(t, wrong.cookies)

	var body errorEnvelope
	wrong.decode(t, &body)
	assert.Equal(t, "email or password does not match", body.Error.Message)

	unknown := srv.call(t, http.MethodPost, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "test@123"})
	assert.Equal(t, wrong.status, unknown.status)
	assert.Equal(t, string(wrong.body), string(unknown.body))

	ok := srv.call(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "test@123"})
	require.Equal(t, http.StatusOK, ok.status)
	assert.NotNil(t, ok.cookies["accessToken"])
}

func TestJWKSVerifiesIssuedToken(t *testing.T) {
	srv := newServer(t)

	jwks := srv.call(t, http.MethodGet, "/.well-known/jwks.json", nil)
	require.Equal(t, http.StatusOK, jwks.status)

	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			Alg string `json:"alg"`
		} `json:"keys"`
	}
	jwks.decode(t, &set)
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "RS256", set.Keys[0].Alg)
	assert.NotEmpty(t, set.Keys[0].Kid)
}

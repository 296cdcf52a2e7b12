//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"auth-service/internal/app"
	"auth-service/internal/config"
	"auth-service/internal/database"
	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/service"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "auth_e2e",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/auth_e2e?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

type testServer struct {
	*httptest.Server
	db *database.DB
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.Options{URL: dsn, MaxConns: 4})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	cfg, err := config.Parse()
	require.NoError(t, err)
	cfg.Database.URL = dsn
	cfg.Auth.PrivateKeyFile = writePrivateKey(t)
	cfg.Auth.RefreshTokenSecret = "e2e-refresh-secret"
	cfg.Auth.BcryptCost = 4
	cfg.RateLimit.GeneralRPM = 0
	cfg.RateLimit.AuthRPM = 1000
	cfg.SessionSweepInterval = 0

	application := app.NewWithDB(cfg, db)
	bgCtx, cancel := context.WithCancel(ctx)
	application.StartBackground(bgCtx)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
		application.Close()
	})

	return &testServer{Server: server, db: db}
}

func writePrivateKey(t *testing.T) string {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "private.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

// seedAdmin inserts an ADMIN directly; the API never creates one.
func (s *testServer) seedAdmin(t *testing.T, email, password string) model.User {
	t.Helper()

	digest, err := service.NewCredentialService(4).Hash(password)
	require.NoError(t, err)

	user, err := repository.NewUserRepository(s.db.Pool).Create(context.Background(), model.User{
		FirstName:      "Ada",
		LastName:       "Admin",
		Email:          email,
		PasswordDigest: digest,
		Role:           model.RoleAdmin,
	})
	require.NoError(t, err)
	return user
}

type response struct {
	status  int
	body    []byte
	cookies map[string]*http.Cookie
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (s *testServer) call(t *testing.T, method, path string, payload any, cookies ...*http.Cookie) response {
	t.Helper()

	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, body: raw, cookies: map[string]*http.Cookie{}}
	for _, c := range resp.Cookies() {
		out.cookies[c.Name] = c
	}
	return out
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"firstName": "John",
		"lastName":  "Smith",
		"email":     email,
		"password":  "test@123",
	}
}

var emailSeq atomic.Int64

func uniqueEmail() string {
	return fmt.Sprintf("user-%d-%d@example.com", time.Now().UnixNano(), emailSeq.Add(1))
}

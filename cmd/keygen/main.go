// Command keygen writes a fresh RSA signing key pair as PEM files.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"auth-service/internal/logger"
	"auth-service/internal/token"
)

const keyBits = 2048

func main() {
	dir := flag.String("out", "certs", "directory to write private.pem and public.pem into")
	flag.Parse()

	slog.SetDefault(logger.New(os.Stderr, "pretty", "info"))

	if err := run(*dir); err != nil {
		slog.Error("key generation failed", "error", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)})

	privPath := filepath.Join(dir, "private.pem")
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "public.pem"), pubPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	kid, err := token.KeyID(&priv.PublicKey)
	if err != nil {
		return err
	}

	slog.Info("key pair written", "dir", dir, "kid", kid, "private_key_file", privPath)
	return nil
}

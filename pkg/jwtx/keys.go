package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// LoadOrGenerateKey returns the PKCS8 PEM bytes of the process signing key.
// When path names an existing file its contents are used; otherwise a fresh
// Ed25519 keypair is generated and written there so tokens survive restarts.
// An empty path yields an ephemeral key (dev mode): every restart
// invalidates outstanding tokens.
func LoadOrGenerateKey(path string) ([]byte, error) {
	if path == "" {
		return generateKeyPEM()
	}

	path = filepath.Clean(path)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("jwtx: read signing key: %w", err)
	}

	pemKey, err := generateKeyPEM()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("jwtx: create key directory: %w", err)
	}
	if err := os.WriteFile(path, pemKey, 0600); err != nil {
		return nil, fmt.Errorf("jwtx: write signing key: %w", err)
	}

	return pemKey, nil
}

func generateKeyPEM() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("jwtx: marshal PKCS8: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

package utils

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// PublicKeyStore maps a JWT kid to the RSA public key that verifies it.
type PublicKeyStore struct {
	keys map[string]*rsa.PublicKey
	mu   sync.RWMutex
}

func NewPublicKeyStore() *PublicKeyStore {
	return &PublicKeyStore{
		keys: make(map[string]*rsa.PublicKey),
	}
}

// LoadKeys reads every "<kid>_public.pem" file in dir. Files that do not
// follow the naming scheme are ignored.
func (store *PublicKeyStore) LoadKeys(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, "_public.pem") {
			continue
		}
		kid := strings.TrimSuffix(name, "_public.pem")
		if kid == "" {
			continue
		}

		path := filepath.Join(dir, name)
		pemData, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("failed to read public key file %s: %w", path, err)
		}
		if err := store.AddOrUpdateKey(kid, string(pemData)); err != nil {
			return loaded, fmt.Errorf("failed to load public key file %s: %w", path, err)
		}
		loaded++
	}
	return loaded, nil
}

// AddOrUpdateKey parses a PEM encoded RSA public key and stores it under kid,
// replacing any previous key.
func (store *PublicKeyStore) AddOrUpdateKey(kid, pemStr string) error {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
	if err != nil {
		return fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.keys[kid] = pubKey
	return nil
}

func (store *PublicKeyStore) RemoveKey(kid string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.keys, kid)
}

func (store *PublicKeyStore) GetKey(kid string) (*rsa.PublicKey, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	key, exists := store.keys[kid]
	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}

func (store *PublicKeyStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.keys)
}

package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	tokenFile = "token.sealed"
	keyFile   = "token.key"

	keySize   = 32
	nonceSize = 24
)

// ErrNoToken is returned when no Catalogue Storage token has been saved.
var ErrNoToken = errors.New("no session token saved (run settoken)")

// Store keeps the Catalogue Storage bearer token sealed on disk. The token
// is encrypted with a machine-local key so a casual copy of the data
// directory does not leak credentials.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first Save, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Token returns the unsealed bearer token. It satisfies the uploader's
// token source contract.
func (s *Store) Token() (string, error) {
	key, err := s.readKey()
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token key: %w", err)
	}

	sealed, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read sealed token: %w", err)
	}
	if len(sealed) < nonceSize {
		return "", errors.New("sealed token is truncated")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return "", errors.New("sealed token failed to decrypt (key mismatch or tampering)")
	}
	return string(plain), nil
}

// Save seals token and writes it to disk, replacing any previous token.
func (s *Store) Save(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	key, err := s.readKey()
	if os.IsNotExist(err) {
		key, err = s.createKey()
	}
	if err != nil {
		return fmt.Errorf("failed to prepare token key: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, key)
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write sealed token: %w", err)
	}
	return nil
}

// Clear removes the saved token. The key is kept so a later Save reuses it.
func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove sealed token: %w", err)
	}
	return nil
}

// HasToken reports whether a sealed token exists, without decrypting it.
func (s *Store) HasToken() bool {
	_, err := os.Stat(filepath.Join(s.dir, tokenFile))
	return err == nil
}

func (s *Store) readKey() (*[keySize]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, keyFile))
	if err != nil {
		return nil, err
	}
	if len(data) != keySize {
		return nil, fmt.Errorf("token key has wrong size %d", len(data))
	}
	var key [keySize]byte
	copy(key[:], data)
	return &key, nil
}

func (s *Store) createKey() (*[keySize]byte, error) {
	var key [keySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, keyFile), key[:], 0o600); err != nil {
		return nil, err
	}
	return &key, nil
}

// Package credstore holds optional credentials (the tracking bearer token)
// in the app state directory. Values are sealed with AES-GCM under a
// machine-local key file, the closest analogue to the mobile keychain the
// original client reads from.
package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

// TokenKey is the fixed credential name the delivery client looks up.
const TokenKey = "api_token"

const keySize = 32

var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Store is a file-per-key credential store.
type Store struct {
	dir string
}

// Open returns a Store rooted at dir, creating the directory and the
// machine key on first use.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}
	s := &Store{dir: dir}
	if _, err := s.loadOrCreateKey(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set seals and stores a secret under key.
func (s *Store) Set(key, secret string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	mk, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}
	sealed, err := seal([]byte(secret), mk)
	if err != nil {
		return fmt.Errorf("seal credential %s: %w", key, err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0600); err != nil {
		return fmt.Errorf("write credential %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

// Get returns the secret stored under key. A missing credential yields
// ("", false, nil): absence is a valid state, not an error.
func (s *Store) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	sealed, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read credential %s: %w", key, err)
	}
	mk, err := s.loadOrCreateKey()
	if err != nil {
		return "", false, err
	}
	secret, err := open(sealed, mk)
	if err != nil {
		return "", false, fmt.Errorf("unseal credential %s: %w", key, err)
	}
	return string(secret), true, nil
}

// Delete removes a credential. Removing an absent credential is a no-op.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credential %s: %w", key, err)
	}
	return nil
}

// Token implements deliver.TokenProvider over the fixed TokenKey.
// Any retrieval failure degrades to "no credential".
func (s *Store) Token() (string, error) {
	tok, ok, err := s.Get(TokenKey)
	if err != nil || !ok {
		return "", err
	}
	return tok, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".cred")
}

func (s *Store) keyPath() string {
	return filepath.Join(s.dir, ".key")
}

func (s *Store) loadOrCreateKey() ([]byte, error) {
	mk, err := os.ReadFile(s.keyPath())
	if err == nil {
		if len(mk) != keySize {
			return nil, fmt.Errorf("machine key has wrong size %d", len(mk))
		}
		return mk, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read machine key: %w", err)
	}

	mk = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, mk); err != nil {
		return nil, fmt.Errorf("generate machine key: %w", err)
	}
	tmp := s.keyPath() + ".tmp"
	if err := os.WriteFile(tmp, mk, 0600); err != nil {
		return nil, fmt.Errorf("write machine key: %w", err)
	}
	if err := os.Rename(tmp, s.keyPath()); err != nil {
		return nil, fmt.Errorf("publish machine key: %w", err)
	}
	return mk, nil
}

func validateKey(key string) error {
	if key == "" || !validKey.MatchString(key) {
		return fmt.Errorf("invalid credential key %q", key)
	}
	return nil
}

// seal encrypts plaintext with AES-GCM, prepending the nonce.
func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a nonce-prefixed AES-GCM ciphertext.
func open(sealed, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

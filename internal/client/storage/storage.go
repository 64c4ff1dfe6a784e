// Package storage persists client state (the access token) in a small JSON
// file that survives restarts. Values can optionally be sealed with an AEAD.
package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the fixed key the access token is stored under.
const TokenKey = "token"

// DefaultFile is the state file used when no path is configured.
const DefaultFile = "portal_state.json"

// ErrCorrupted is returned by Get when a sealed value cannot be opened.
var ErrCorrupted = errors.New("stored value cannot be decrypted")

// LocalStorage is a string key/value map mirrored to a JSON file.
type LocalStorage struct {
	Values map[string]string `json:"values"`

	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

// New returns a LocalStorage bound to path. A nil aead stores values in
// clear text.
func New(path string, aead cipher.AEAD) *LocalStorage {
	if path == "" {
		path = DefaultFile
	}
	return &LocalStorage{path: path, aead: aead, Values: map[string]string{}}
}

// Path returns the backing file.
func (ls *LocalStorage) Path() string {
	return ls.path
}

// Load reads the backing file. A missing file is an empty storage.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.Values = map[string]string{}
	f, err := os.Open(ls.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(ls); err != nil {
		return fmt.Errorf("decode %s: %w", ls.path, err)
	}
	if ls.Values == nil {
		ls.Values = map[string]string{}
	}
	return nil
}

// Save writes the storage atomically (temp file + rename) with 0600 rights.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.saveLocked()
}

func (ls *LocalStorage) saveLocked() error {
	b, err := json.Marshal(ls)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(ls.path), ".portal-state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), ls.path)
}

// Get returns the value under key.
func (ls *LocalStorage) Get(key string) (string, bool, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	v, ok := ls.Values[key]
	if !ok {
		return "", false, nil
	}
	if ls.aead == nil {
		return v, true, nil
	}
	plain, err := ls.open(v)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// Set stores value under key and persists the file.
func (ls *LocalStorage) Set(key, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.aead != nil {
		sealed, err := ls.seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	if ls.Values == nil {
		ls.Values = map[string]string{}
	}
	ls.Values[key] = value
	return ls.saveLocked()
}

// Delete removes key and persists the file. Deleting a missing key is not
// an error.
func (ls *LocalStorage) Delete(key string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, ok := ls.Values[key]; !ok {
		return nil
	}
	delete(ls.Values, key)
	return ls.saveLocked()
}

// Token returns the persisted access token.
func (ls *LocalStorage) Token() (string, bool) {
	tok, ok, err := ls.Get(TokenKey)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, ok
}

// SetToken persists the access token.
func (ls *LocalStorage) SetToken(token string) error {
	return ls.Set(TokenKey, token)
}

// ClearToken removes the persisted access token.
func (ls *LocalStorage) ClearToken() error {
	return ls.Delete(TokenKey)
}

// seal encrypts plain as base64(nonce || ciphertext).
func (ls *LocalStorage) seal(plain string) (string, error) {
	nonce := make([]byte, ls.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	ct := ls.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

func (ls *LocalStorage) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < ls.aead.NonceSize() {
		return "", ErrCorrupted
	}
	nonce, data := raw[:ls.aead.NonceSize()], raw[ls.aead.NonceSize():]
	plain, err := ls.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", ErrCorrupted
	}
	return string(plain), nil
}

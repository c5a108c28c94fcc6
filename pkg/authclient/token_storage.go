package authclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStorage persists the session token between runs, the way a browser
// keeps it in local storage next to the cookie.
type TokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStorage keeps the token in memory.
type MemoryTokenStorage struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStorage creates an empty MemoryTokenStorage.
func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{}
}

// Load implements TokenStorage.
func (m *MemoryTokenStorage) Load() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Save implements TokenStorage.
func (m *MemoryTokenStorage) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear implements TokenStorage.
func (m *MemoryTokenStorage) Clear() error {
	return m.Save("")
}

// FileTokenStorage keeps the token in a file readable only by its owner.
type FileTokenStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStorage creates a FileTokenStorage at path.
func NewFileTokenStorage(path string) *FileTokenStorage {
	return &FileTokenStorage{path: path}
}

// DefaultTokenPath returns the token file location under the user config dir.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "authflow", "token"), nil
}

// Load implements TokenStorage. A missing file is an empty token.
func (f *FileTokenStorage) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements TokenStorage.
func (f *FileTokenStorage) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(f.path, 0o600)
}

// Clear implements TokenStorage.
func (f *FileTokenStorage) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

package session

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/faunagram-go/internal/errors"
)

// TokenStore persists the session token between runs
type TokenStore interface {
	// Load returns the stored token, empty when none is stored
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// tokenFile is the on-disk layout of FileTokenStore
type tokenFile struct {
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// FileTokenStore keeps the token in a YAML file readable only by the owner
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore creates a store at path; the file is created on Save
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load implements TokenStore
func (s *FileTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", tokenFileError(err, s.path, "read", errors.CategoryFileIO)
	}

	var tf tokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return "", tokenFileError(err, s.path, "parse", errors.CategoryFileParsing)
	}
	return tf.Token, nil
}

// Save implements TokenStore. The file is replaced atomically.
func (s *FileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(tokenFile{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return tokenFileError(err, s.path, "encode", errors.CategoryFileParsing)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return tokenFileError(err, s.path, "mkdir", errors.CategoryFileIO)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return tokenFileError(err, s.path, "create", errors.CategoryFileIO)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return tokenFileError(err, s.path, "chmod", errors.CategoryFileIO)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return tokenFileError(err, s.path, "write", errors.CategoryFileIO)
	}
	if err := tmp.Close(); err != nil {
		return tokenFileError(err, s.path, "close", errors.CategoryFileIO)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return tokenFileError(err, s.path, "rename", errors.CategoryFileIO)
	}
	return nil
}

// Clear implements TokenStore
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return tokenFileError(err, s.path, "remove", errors.CategoryFileIO)
	}
	return nil
}

func tokenFileError(err error, path, op string, category errors.ErrorCategory) error {
	return errors.New(err).
		Category(category).
		Component("session").
		Context("operation", op).
		Context("path", path).
		Build()
}

// MemoryTokenStore keeps the token for the lifetime of the process
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore returns a store holding token
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

// Load implements TokenStore
func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save implements TokenStore
func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear implements TokenStore
func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

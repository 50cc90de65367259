package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// FileStore persists the credential record and access token as files under
// a base directory, one file per storage key. Writes go through a temp file
// and an atomic rename so a crash never leaves a torn record behind.
type FileStore struct {
	mu        sync.Mutex
	baseDir   string
	recordKey string
	tokenKey  string
}

var _ CredentialStore = (*FileStore)(nil)

// FileStoreOption customizes the file store.
type FileStoreOption func(*FileStore)

// WithStorageKeys overrides the fixed storage keys.
func WithStorageKeys(recordKey, tokenKey string) FileStoreOption {
	return func(s *FileStore) {
		if recordKey != "" {
			s.recordKey = recordKey
		}
		if tokenKey != "" {
			s.tokenKey = tokenKey
		}
	}
}

// NewFileStore creates the base directory (0700) if needed. An empty
// baseDir resolves to ~/.go4it.
func NewFileStore(baseDir string, opts ...FileStoreOption) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve home directory")
		}
		baseDir = filepath.Join(home, ".go4it")
	}

	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credential directory")
	}

	s := &FileStore{
		baseDir:   baseDir,
		recordKey: DefaultRecordKey,
		tokenKey:  DefaultTokenKey,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// ReadRecord implements CredentialStore.
func (s *FileStore) ReadRecord() (*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(s.recordKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStoredCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read credential record")
	}

	record := &CredentialRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		// A corrupt record is treated as absent so startup falls through
		// to the network check.
		return nil, withMetadata(ErrNoStoredCredentials, map[string]any{
			"cause": err.Error(),
		})
	}

	return record, nil
}

// WriteRecord implements CredentialStore.
func (s *FileStore) WriteRecord(record *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record == nil {
		return s.remove(s.recordKey)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode credential record")
	}

	return s.writeAtomic(s.recordKey, data)
}

// ReadToken implements CredentialStore.
func (s *FileStore) ReadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(s.tokenKey))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoStoredCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read access token")
	}

	return string(data), nil
}

// WriteToken implements CredentialStore.
func (s *FileStore) WriteToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return s.remove(s.tokenKey)
	}

	return s.writeAtomic(s.tokenKey, []byte(token))
}

// Clear implements CredentialStore.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remove(s.recordKey); err != nil {
		return err
	}
	return s.remove(s.tokenKey)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *FileStore) writeAtomic(key string, data []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write credential file")
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save credential file")
	}

	return nil
}

func (s *FileStore) remove(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove credential file")
	}
	return nil
}

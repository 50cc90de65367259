package session

import "sync"

// MemoryStore is an in-process CredentialStore. Handy for tests and for
// embedding the manager where nothing should touch disk.
type MemoryStore struct {
	mu     sync.Mutex
	record *CredentialRecord
	token  string
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ReadRecord implements CredentialStore.
func (s *MemoryStore) ReadRecord() (*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, ErrNoStoredCredentials
	}
	record := *s.record
	return &record, nil
}

// WriteRecord implements CredentialStore.
func (s *MemoryStore) WriteRecord(record *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record == nil {
		s.record = nil
		return nil
	}
	clone := *record
	s.record = &clone
	return nil
}

// ReadToken implements CredentialStore.
func (s *MemoryStore) ReadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoStoredCredentials
	}
	return s.token, nil
}

// WriteToken implements CredentialStore.
func (s *MemoryStore) WriteToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear implements CredentialStore.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	s.token = ""
	return nil
}

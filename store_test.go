package session_test

import (
	"os"
	"path/filepath"
	"testing"

	session "github.com/go4itsports/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := session.NewMemoryStore()

	_, err := store.ReadRecord()
	assert.True(t, session.IsNoStoredCredentials(err))
	_, err = store.ReadToken()
	assert.True(t, session.IsNoStoredCredentials(err))

	record := &session.CredentialRecord{
		Username: "alexjohnson",
		Name:     "Alex Johnson",
		Role:     session.RoleAthlete,
	}
	require.NoError(t, store.WriteRecord(record))
	require.NoError(t, store.WriteToken("tok-1"))

	got, err := store.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// The store hands out copies.
	got.Username = "mutated"
	again, err := store.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, "alexjohnson", again.Username)

	token, err := store.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Clear())
	_, err = store.ReadRecord()
	assert.True(t, session.IsNoStoredCredentials(err))
	_, err = store.ReadToken()
	assert.True(t, session.IsNoStoredCredentials(err))
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.ReadRecord()
	assert.True(t, session.IsNoStoredCredentials(err))

	record := &session.CredentialRecord{
		Username: "coachwilliams",
		Name:     "Marcus Williams",
		Role:     session.RoleCoach,
	}
	require.NoError(t, store.WriteRecord(record))
	require.NoError(t, store.WriteToken("tok-2"))

	got, err := store.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, record, got)

	token, err := store.ReadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	// A fresh store over the same directory sees the same data.
	reopened, err := session.NewFileStore(dir)
	require.NoError(t, err)
	got, err = reopened.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, "coachwilliams", got.Username)
}

func TestFileStorePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, store.WriteToken("secret"))
	info, err = os.Stat(filepath.Join(dir, session.DefaultTokenKey+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, session.DefaultRecordKey+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err = store.ReadRecord()
	assert.True(t, session.IsNoStoredCredentials(err))

	// The decode failure is attached to a copy, never the sentinel.
	assert.Empty(t, session.ErrNoStoredCredentials.Metadata)
}

func TestFileStoreClear(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteRecord(&session.CredentialRecord{Username: "x"}))
	require.NoError(t, store.WriteToken("tok"))
	require.NoError(t, store.Clear())

	_, err = store.ReadRecord()
	assert.True(t, session.IsNoStoredCredentials(err))
	_, err = store.ReadToken()
	assert.True(t, session.IsNoStoredCredentials(err))

	// Clearing an already-empty store is fine.
	require.NoError(t, store.Clear())
}

func TestFileStoreCustomKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir, session.WithStorageKeys("acme.user", "acme.token"))
	require.NoError(t, err)

	require.NoError(t, store.WriteToken("tok"))
	_, err = os.Stat(filepath.Join(dir, "acme.token.json"))
	assert.NoError(t, err)
}

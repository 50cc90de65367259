package session_test

import (
	"errors"
	"testing"

	session "github.com/go4itsports/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	assert.True(t, session.IsAlreadyExists(session.ErrAlreadyExists))
	assert.True(t, session.IsUnauthorized(session.ErrUnauthorized))
	assert.True(t, session.IsNetworkFailure(session.ErrNetwork))
	assert.True(t, session.IsNotAuthenticated(session.ErrNotAuthenticated))
	assert.True(t, session.IsNoStoredCredentials(session.ErrNoStoredCredentials))

	assert.False(t, session.IsAlreadyExists(session.ErrUnauthorized))
	assert.False(t, session.IsUnauthorized(nil))
	assert.False(t, session.IsNetworkFailure(errors.New("plain")))
}

func TestPredicatesSurviveMetadata(t *testing.T) {
	withMeta := session.ErrUnauthorized.Clone().WithMetadata(map[string]any{"path": "/api/auth/me"})
	assert.True(t, session.IsUnauthorized(withMeta))

	var richErr *goerrors.Error
	assert.True(t, goerrors.As(withMeta, &richErr))
	assert.Equal(t, "please log in to continue", richErr.Message)

	// Attaching metadata to the copy leaves the package sentinel untouched.
	assert.Empty(t, session.ErrUnauthorized.Metadata)
}

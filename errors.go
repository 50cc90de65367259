package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeAlreadyExists    = "USER_ALREADY_EXISTS"
	textCodeUnauthorized     = "UNAUTHORIZED"
	textCodeNetworkFailure   = "NETWORK_FAILURE"
	textCodeNotAuthenticated = "NOT_AUTHENTICATED"
	textCodeRoleNotAllowed   = "ROLE_NOT_ALLOWED"
	textCodeNoCredentials    = "NO_STORED_CREDENTIALS"
)

// ErrAlreadyExists signals a registration against a taken username or email.
var ErrAlreadyExists = goerrors.New("user already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeAlreadyExists).
	WithCode(goerrors.CodeConflict)

// ErrUnauthorized signals a rejected or missing credential (HTTP 401).
var ErrUnauthorized = goerrors.New("please log in to continue", goerrors.CategoryAuth).
	WithTextCode(textCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrNetwork signals that no response was received from the auth service.
var ErrNetwork = goerrors.New("could not reach the server, check your connection", goerrors.CategoryOperation).
	WithTextCode(textCodeNetworkFailure)

// ErrNotAuthenticated is returned by operations that require a session.
var ErrNotAuthenticated = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(textCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleNotAllowed is returned when role switching is attempted by an
// account whose actual role is below super_admin.
var ErrRoleNotAllowed = goerrors.New("only super admins can switch roles", goerrors.CategoryAuth).
	WithTextCode(textCodeRoleNotAllowed).
	WithCode(goerrors.CodeForbidden)

// ErrNoStoredCredentials is the sentinel credential stores return when no
// record or token has been written.
var ErrNoStoredCredentials = goerrors.New("no stored credentials", goerrors.CategoryNotFound).
	WithTextCode(textCodeNoCredentials).
	WithCode(goerrors.CodeNotFound)

// withMetadata attaches per-call metadata to a copy of a sentinel so the
// package-level value stays pristine. Callers may hold sentinels across
// goroutines; mutating them in place would leak one call's metadata into
// every later error.
func withMetadata(sentinel *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	return clone.WithMetadata(meta)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsAlreadyExists checks for the duplicate-account kind. Callers branch on
// this rather than matching server message strings.
func IsAlreadyExists(err error) bool {
	return hasTextCode(err, textCodeAlreadyExists)
}

// IsUnauthorized checks for the 401 kind.
func IsUnauthorized(err error) bool {
	return hasTextCode(err, textCodeUnauthorized)
}

// IsNetworkFailure checks for the transport-failure kind.
func IsNetworkFailure(err error) bool {
	return hasTextCode(err, textCodeNetworkFailure)
}

// IsNotAuthenticated checks for the missing-session kind.
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, textCodeNotAuthenticated)
}

// IsNoStoredCredentials checks for the empty-store sentinel.
func IsNoStoredCredentials(err error) bool {
	return hasTextCode(err, textCodeNoCredentials)
}

// userMessage extracts the text shown in a failure notification: the rich
// error message when available, otherwise the raw error text.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return err.Error()
}

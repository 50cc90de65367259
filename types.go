package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthService is the remote auth surface the manager talks to. The platform
// backend owns the other side; see the server package for the reference
// implementation.
type AuthService interface {
	Login(ctx context.Context, identifier, secret string) (*AuthResult, error)
	Register(ctx context.Context, payload RegisterUserMessage) (*AuthResult, error)
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
}

// AuthResult is the response shape shared by the login and register endpoints.
type AuthResult struct {
	User        *User  `json:"user,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// CredentialStore persists the minimal credential record and the access token
// under separate keys. Only the Manager writes to it.
type CredentialStore interface {
	ReadRecord() (*CredentialRecord, error)
	WriteRecord(record *CredentialRecord) error
	ReadToken() (string, error)
	WriteToken(token string) error
	Clear() error
}

// Notifier is the toast sink the manager emits user-visible messages to.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warn(message string)
}

// Navigator redirects the UI after auth transitions.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) {
	if f != nil {
		f(path)
	}
}

// Connector is the real-time messaging handle associated with a session.
// Both calls may fail without affecting auth state.
type Connector interface {
	Connect(ctx context.Context, userID int64) error
	Disconnect() error
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}
func (noopNotifier) Warn(string)    {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier routes notifications through a Logger. Useful for headless
// consumers that have no toast system.
type LogNotifier struct {
	Logger Logger
}

// Success implements Notifier.
func (l LogNotifier) Success(message string) { l.logger().Info("%s", message) }

// Error implements Notifier.
func (l LogNotifier) Error(message string) { l.logger().Error("%s", message) }

// Warn implements Notifier.
func (l LogNotifier) Warn(message string) { l.logger().Warn("%s", message) }

func (l LogNotifier) logger() Logger {
	if l.Logger == nil {
		return defLogger{}
	}
	return l.Logger
}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

func normalizeNavigator(n Navigator) Navigator {
	if n == nil {
		return noopNavigator{}
	}
	return n
}

type noopConnector struct{}

func (noopConnector) Connect(context.Context, int64) error { return nil }
func (noopConnector) Disconnect() error                    { return nil }

func normalizeConnector(c Connector) Connector {
	if c == nil {
		return noopConnector{}
	}
	return c
}

// DefaultLogger returns the printf logger collaborators fall back to when
// none is injected.
func DefaultLogger() Logger { return defLogger{} }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

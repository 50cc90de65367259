package session

import "time"

const (
	// DefaultLoginTimeout is the advisory watchdog for the login round-trip.
	DefaultLoginTimeout = 15 * time.Second
	// DefaultLogoutTimeout is the guard that forces logout cleanup.
	DefaultLogoutTimeout = 5 * time.Second
	// DefaultRecordKey is the storage key for the credential record.
	DefaultRecordKey = "go4it.user"
	// DefaultTokenKey is the storage key for the raw access token.
	DefaultTokenKey = "go4it.token"
)

// Config holds session manager options
type Config interface {
	GetBaseURL() string
	GetLoginTimeout() time.Duration
	GetLogoutTimeout() time.Duration
	GetDemoAccounts() DemoAccounts
}

// SimpleConfig is a plain-struct Config.
type SimpleConfig struct {
	BaseURL       string
	LoginTimeout  time.Duration
	LogoutTimeout time.Duration
	Demo          DemoAccounts
}

// GetBaseURL returns the auth service base URL.
func (c SimpleConfig) GetBaseURL() string { return c.BaseURL }

// GetLoginTimeout returns the login watchdog duration.
func (c SimpleConfig) GetLoginTimeout() time.Duration {
	if c.LoginTimeout <= 0 {
		return DefaultLoginTimeout
	}
	return c.LoginTimeout
}

// GetLogoutTimeout returns the logout guard duration.
func (c SimpleConfig) GetLogoutTimeout() time.Duration {
	if c.LogoutTimeout <= 0 {
		return DefaultLogoutTimeout
	}
	return c.LogoutTimeout
}

// GetDemoAccounts returns the injectable demo provisioning table. A nil map
// disables the demo flow entirely.
func (c SimpleConfig) GetDemoAccounts() DemoAccounts { return c.Demo }

// DefaultConfig wires the stock demo table and timer defaults.
func DefaultConfig(baseURL string) SimpleConfig {
	return SimpleConfig{
		BaseURL: baseURL,
		Demo:    DefaultDemoAccounts(),
	}
}

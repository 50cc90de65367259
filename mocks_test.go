package session_test

import (
	"context"
	"sync"

	session "github.com/go4itsports/go-session"
	"github.com/stretchr/testify/mock"
)

// MockAuthService implements session.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, identifier, secret string) (*session.AuthResult, error) {
	args := m.Called(ctx, identifier, secret)
	res, _ := args.Get(0).(*session.AuthResult)
	return res, args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, payload session.RegisterUserMessage) (*session.AuthResult, error) {
	args := m.Called(ctx, payload)
	res, _ := args.Get(0).(*session.AuthResult)
	return res, args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context) (*session.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*session.User)
	return user, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingNotifier captures toast traffic so tests can assert on counts
// and mutual exclusion. Safe for use from watchdog goroutines.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	warnings  []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, message)
}

func (n *recordingNotifier) counts() (successes, errors, warnings int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.successes), len(n.errors), len(n.warnings)
}

func (n *recordingNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

func (n *recordingNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

// recordingConnector counts realtime connection churn.
type recordingConnector struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	lastUserID  int64
	connectErr  error
}

func (c *recordingConnector) Connect(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connects++
	c.lastUserID = userID
	return nil
}

func (c *recordingConnector) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return nil
}

func (c *recordingConnector) stats() (connects, disconnects int, lastUserID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects, c.disconnects, c.lastUserID
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event session.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byType(et session.ActivityEventType) []session.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []session.ActivityEvent
	for _, e := range s.events {
		if e.EventType == et {
			out = append(out, e)
		}
	}
	return out
}

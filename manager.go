package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// State is the discrete lifecycle state of a session.
type State string

const (
	// StateAnonymous means no identity is attached.
	StateAnonymous State = "anonymous"
	// StateChecking is the startup-only window while stored credentials or
	// the remote service are consulted.
	StateChecking State = "checking"
	// StateAuthenticated means a user record is loaded.
	StateAuthenticated State = "authenticated"
)

// Snapshot is a consistent read of the manager's observable state.
type Snapshot struct {
	User       *User
	ActualRole UserRole
	Loading    bool
	State      State
}

// Manager owns the session lifecycle: it is the single writer of the
// credential store and the realtime connection handle, and guarantees the
// UI never observes an inconsistent user/actualRole/loading combination.
type Manager struct {
	svc       AuthService
	creds     CredentialStore
	cfg       Config
	notifier  Notifier
	navigator Navigator
	connector Connector
	sink      ActivitySink
	logger    Logger
	now       func() time.Time

	transitions map[State]map[State]struct{}

	mu         sync.Mutex
	user       *User
	actualRole UserRole
	loading    bool
	state      State
	started    bool
	connected  bool
	loggingOut bool
}

// Option customizes manager construction.
type Option func(*Manager)

// WithNotifier sets the toast sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = normalizeNotifier(n)
	}
}

// WithNavigator sets the redirect target.
func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = normalizeNavigator(n)
	}
}

// WithConnector sets the realtime connector opened per login cycle.
func WithConnector(c Connector) Option {
	return func(m *Manager) {
		m.connector = normalizeConnector(c)
	}
}

// WithActivitySink configures an ActivitySink for emitting session events.
func WithActivitySink(sink ActivitySink) Option {
	return func(m *Manager) {
		m.sink = normalizeActivitySink(sink)
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewManager returns a session manager bound to the given service and store.
func NewManager(svc AuthService, creds CredentialStore, cfg Config, opts ...Option) *Manager {
	if svc == nil {
		panic("Missing AuthService in session manager...")
	}

	if creds == nil {
		panic("Missing CredentialStore in session manager...")
	}

	if cfg == nil {
		cfg = SimpleConfig{}
	}

	m := &Manager{
		svc:       svc,
		creds:     creds,
		cfg:       cfg,
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
		connector: noopConnector{},
		sink:      noopActivitySink{},
		logger:    defLogger{},
		now:       time.Now,
		state:     StateAnonymous,
		transitions: map[State]map[State]struct{}{
			StateAnonymous: {
				StateChecking:      {},
				StateAuthenticated: {},
			},
			StateChecking: {
				StateAnonymous:     {},
				StateAuthenticated: {},
			},
			StateAuthenticated: {
				StateAnonymous: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Start runs the one-time startup sequence: restore from the credential
// record when one exists (no network), otherwise ask the remote service who
// the caller is. Returns the resulting state; loading is false in every
// outcome.
func (m *Manager) Start(ctx context.Context) State {
	m.mu.Lock()
	if m.started {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.started = true
	m.loading = true
	m.setStateLocked(StateChecking)
	m.mu.Unlock()

	record, err := m.creds.ReadRecord()
	if err != nil && !IsNoStoredCredentials(err) {
		m.logger.Warn("credential record read failed: %v", err)
	}

	if record != nil {
		user := record.Synthesize()
		m.mu.Lock()
		m.user = user
		m.actualRole = record.Role
		m.loading = false
		m.setStateLocked(StateAuthenticated)
		m.mu.Unlock()

		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSessionRestored,
			Username:  user.Username,
			Role:      record.Role,
		})
		return StateAuthenticated
	}

	user, err := m.svc.Me(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if err != nil || user == nil {
		if err != nil {
			m.logger.Debug("session check failed: %v", err)
		}
		m.setStateLocked(StateAnonymous)
		return StateAnonymous
	}

	m.user = user.Clone()
	m.actualRole = user.Role
	m.setStateLocked(StateAuthenticated)
	return StateAuthenticated
}

// Close releases the realtime connection on teardown.
func (m *Manager) Close() error {
	return m.disconnect()
}

// Login authenticates the identifier/secret pair against the remote service
// and, on success, runs the ordered completion path: persist credentials,
// set user state, open the realtime connection, notify, navigate to root.
//
// Overlapping calls are not deduplicated; the last resolution wins. The
// watchdog configured via Config.GetLoginTimeout is advisory: it warns and
// resets loading without cancelling the in-flight calls, so a late success
// still lands.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	watchdog := time.AfterFunc(m.cfg.GetLoginTimeout(), func() {
		m.notifier.Warn("Sign in is taking longer than expected. Check your connection.")
		m.setLoading(false)
	})
	defer watchdog.Stop()

	if acct, ok := m.cfg.GetDemoAccounts().Lookup(identifier, secret); ok {
		if _, err := m.svc.Register(ctx, acct.Registration); err != nil && !IsAlreadyExists(err) {
			m.logger.Warn("demo account provisioning failed: %v", err)
		}
		// Either way the login below is the authoritative attempt.
	}

	res, err := m.svc.Login(ctx, identifier, secret)
	if err != nil {
		return m.failAuth(ctx, ActivityEventLoginFailure, identifier, err)
	}

	user, err := m.svc.Me(ctx)
	if err != nil {
		return m.failAuth(ctx, ActivityEventLoginFailure, identifier, err)
	}
	if user == nil {
		return m.failAuth(ctx, ActivityEventLoginFailure, identifier, ErrUnauthorized)
	}

	var token string
	if res != nil {
		token = res.AccessToken
	}

	m.completeAuth(ctx, user, token, ActivityEventLoginSuccess, "Welcome back, "+user.Name+"!")
	return nil
}

// Register forwards the payload to the remote service and on success runs
// the same ordered completion path as Login. The failure notification is
// suppressed when the account already exists and the username belongs to
// the demo table, so the login-triggers-registration flow stays quiet.
func (m *Manager) Register(ctx context.Context, payload RegisterUserMessage) error {
	m.setLoading(true)
	defer m.setLoading(false)

	res, err := m.svc.Register(ctx, payload)
	if err != nil {
		if IsAlreadyExists(err) && m.isDemoIdentifier(payload.Username) {
			m.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventRegisterFailure,
				Username:  payload.Username,
				Metadata:  map[string]any{"suppressed": true},
			})
			return err
		}
		return m.failAuth(ctx, ActivityEventRegisterFailure, payload.Username, err)
	}

	var user *User
	var token string
	if res != nil {
		user = res.User
		token = res.AccessToken
	}
	if user == nil {
		if user, err = m.svc.Me(ctx); err != nil {
			return m.failAuth(ctx, ActivityEventRegisterFailure, payload.Username, err)
		}
	}

	m.completeAuth(ctx, user, token, ActivityEventRegisterSuccess, "Welcome to Go4It, "+user.Name+"!")
	return nil
}

// Logout tears the session down. Client-side cleanup always runs exactly
// once, even when the remote call fails or outlives the guard timer; the
// realtime disconnect goes first and never blocks the remote call. A second
// invocation after completion is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.loggingOut || m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	m.loggingOut = true
	m.loading = true
	m.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() { m.clearSession(ctx) })
	}

	guard := time.AfterFunc(m.cfg.GetLogoutTimeout(), cleanup)
	defer guard.Stop()

	if err := m.disconnect(); err != nil {
		m.logger.Warn("realtime disconnect failed during logout: %v", err)
	}

	err := m.svc.Logout(ctx)
	cleanup()

	if err != nil {
		m.logger.Error("remote logout failed: %v", err)
		m.notifier.Warn("Signed out locally, but the server could not be reached.")
	} else {
		m.notifier.Success("Signed out. See you next time!")
	}

	m.mu.Lock()
	m.loggingOut = false
	m.mu.Unlock()

	return err
}

// UpdateUser merges the patch into the in-memory user record. There is no
// remote persistence on this path.
func (m *Manager) UpdateUser(ctx context.Context, patch UserPatch) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		m.notifier.Error(userMessage(ErrNotAuthenticated))
		return ErrNotAuthenticated
	}
	patch.apply(m.user)
	user := m.user.Clone()
	m.mu.Unlock()

	m.notifier.Success("Profile updated")
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		Username:  user.Username,
		Role:      user.Role,
	})
	return nil
}

// SwitchRole overrides the display role. The actual role never changes; only
// accounts provisioned as super_admin may switch.
func (m *Manager) SwitchRole(ctx context.Context, role UserRole) error {
	if !KnownRole(role) {
		err := goerrors.New("unknown role: "+role, goerrors.CategoryValidation).
			WithTextCode("INVALID_ROLE")
		m.notifier.Error(userMessage(err))
		return err
	}

	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		m.notifier.Error(userMessage(ErrNotAuthenticated))
		return ErrNotAuthenticated
	}
	if m.actualRole != RoleSuperAdmin {
		m.mu.Unlock()
		m.notifier.Error(userMessage(ErrRoleNotAllowed))
		return ErrRoleNotAllowed
	}
	m.user.Role = role
	username := m.user.Username
	m.mu.Unlock()

	m.notifier.Success("Now viewing the platform as " + role)
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRoleSwitched,
		Username:  username,
		Role:      role,
	})
	return nil
}

// Snapshot returns a consistent copy of the observable state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		User:       m.user.Clone(),
		ActualRole: m.actualRole,
		Loading:    m.loading,
		State:      m.state,
	}
}

// CurrentUser returns a copy of the active user, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

// ActualRole returns the role the account was provisioned with.
func (m *Manager) ActualRole() UserRole {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actualRole
}

// Loading reports whether an auth operation is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// CurrentState returns the discrete lifecycle state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CanTransition reports whether the lifecycle allows moving between two
// discrete states.
func (m *Manager) CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	allowed, ok := m.transitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}

func (m *Manager) completeAuth(ctx context.Context, user *User, token string, event ActivityEventType, message string) {
	if token != "" {
		if err := m.creds.WriteToken(token); err != nil {
			m.logger.Error("persist access token: %v", err)
		}
	}

	record := &CredentialRecord{
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
	if err := m.creds.WriteRecord(record); err != nil {
		m.logger.Error("persist credential record: %v", err)
	}

	m.mu.Lock()
	m.user = user.Clone()
	m.actualRole = user.Role
	m.loading = false
	m.setStateLocked(StateAuthenticated)
	m.mu.Unlock()

	m.reconnect(ctx, user.ID)
	m.notifier.Success(message)
	m.navigator.Navigate("/")
	m.recordActivity(ctx, ActivityEvent{
		EventType: event,
		Username:  user.Username,
		Role:      user.Role,
	})
}

func (m *Manager) failAuth(ctx context.Context, event ActivityEventType, identifier string, err error) error {
	m.notifier.Error(userMessage(err))
	m.recordActivity(ctx, ActivityEvent{
		EventType: event,
		Username:  identifier,
		Metadata:  map[string]any{"error": err.Error()},
	})

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryOperation, "authentication failed")
}

func (m *Manager) clearSession(ctx context.Context) {
	m.mu.Lock()
	username := ""
	if m.user != nil {
		username = m.user.Username
	}
	m.user = nil
	m.actualRole = ""
	m.loading = false
	m.setStateLocked(StateAnonymous)
	m.mu.Unlock()

	if err := m.creds.Clear(); err != nil {
		m.logger.Error("clear credential store: %v", err)
	}

	m.navigator.Navigate("/")
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		Username:  username,
	})
}

// reconnect closes any previous realtime connection before opening one for
// the new login cycle. Connector failures are logged, never surfaced.
func (m *Manager) reconnect(ctx context.Context, userID int64) {
	m.mu.Lock()
	wasConnected := m.connected
	m.connected = false
	m.mu.Unlock()

	if wasConnected {
		if err := m.connector.Disconnect(); err != nil {
			m.logger.Warn("realtime disconnect failed: %v", err)
		}
	}

	if err := m.connector.Connect(ctx, userID); err != nil {
		m.logger.Warn("realtime connect failed: %v", err)
		return
	}

	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
}

func (m *Manager) disconnect() error {
	m.mu.Lock()
	wasConnected := m.connected
	m.connected = false
	m.mu.Unlock()

	if !wasConnected {
		return nil
	}
	return m.connector.Disconnect()
}

func (m *Manager) isDemoIdentifier(identifier string) bool {
	_, ok := m.cfg.GetDemoAccounts()[identifier]
	return ok
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setStateLocked(to State) {
	if m.state == to {
		return
	}
	if _, ok := m.transitions[m.state][to]; !ok {
		m.logger.Warn("unexpected session state transition: %s -> %s", m.state, to)
	}
	m.state = to
}

func (m *Manager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.sink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

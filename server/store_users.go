package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	session "github.com/go4itsports/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// CreateUserInput carries a validated registration into the store.
type CreateUserInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      string
}

// UserStore persists accounts through bun.
type UserStore struct {
	db *bun.DB
}

// NewUserStore wraps an existing bun handle.
func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

// OpenSQLite opens a sqlite-backed bun handle. Use ":memory:" for tests and
// a file path for the dev server.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the users table when missing.
func (s *UserStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users table")
	}
	return nil
}

// Create inserts a new account. Duplicate usernames or emails map to the
// already-exists kind so the HTTP layer can answer 409.
func (s *UserStore) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.db.NewSelect().
		Model((*User)(nil)).
		Where("username = ? OR email = ?", identifier, email).
		Exists(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing accounts")
	}
	if exists {
		return nil, session.ErrAlreadyExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	publicID, err := hashid.NewUUID(email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive public id")
	}

	role := input.Role
	if role == "" {
		role = session.RoleAthlete
	}

	now := time.Now()
	user := &User{
		PublicID:     publicID,
		Username:     identifier,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Phone:        input.Phone,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return user, nil
}

// FindByIdentifier resolves a username or email to its account.
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("username = ? OR email = ?", identifier, identifier).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{"identifier": identifier})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return user, nil
}

// FindByID loads an account by primary key.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return user, nil
}

// Authenticate verifies the password and keeps the login bookkeeping
// columns current: failed attempts increment a counter, success resets it
// and stamps logged_in_at.
func (s *UserStore) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.recordAttempt(ctx, user, false)
		return nil, err
	}

	s.recordAttempt(ctx, user, true)
	return user, nil
}

// recordAttempt is best-effort; bookkeeping never blocks authentication.
func (s *UserStore) recordAttempt(ctx context.Context, user *User, success bool) {
	now := time.Now()
	user.LoginAttemptAt = sql.NullTime{Time: now, Valid: true}
	user.UpdatedAt = now

	columns := []string{"login_attempt_at", "login_attempts", "updated_at"}
	if success {
		user.LoginAttempts = 0
		user.LoggedInAt = sql.NullTime{Time: now, Valid: true}
		columns = append(columns, "logged_in_at")
	} else {
		user.LoginAttempts++
	}

	_, _ = s.db.NewUpdate().
		Model(user).
		WherePK().
		Column(columns...).
		Exec(ctx)
}

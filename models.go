package session

import (
	"strings"
)

// UserRole is the platform role attached to an account
type UserRole = string

const (
	// RoleAthlete is the default role for new accounts
	RoleAthlete UserRole = "athlete"
	// RoleCoach can manage rosters and message athletes
	RoleCoach UserRole = "coach"
	// RoleScout can run evaluations and shortlists
	RoleScout UserRole = "scout"
	// RoleAdmin manages platform content
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin is the highest-privilege role; the only role allowed
	// to override its display role
	RoleSuperAdmin UserRole = "super_admin"
)

var roleRank = map[UserRole]int{
	RoleAthlete:    1,
	RoleCoach:      2,
	RoleScout:      3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// KnownRole reports whether role is one of the platform roles.
func KnownRole(role UserRole) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleIsAtLeast compares two roles by privilege rank. Unknown roles rank
// below every known role.
func RoleIsAtLeast(role, min UserRole) bool {
	return roleRank[role] >= roleRank[min]
}

// User is the wire shape of a platform account as the auth endpoints
// return it.
type User struct {
	ID        int64    `json:"id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Role      UserRole `json:"role,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
}

// Clone returns a copy so callers cannot mutate manager-owned state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// UserPatch carries a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      *UserRole `json:"role,omitempty"`
}

func (p UserPatch) apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

// RegisterUserMessage is the registration payload forwarded to the remote
// service. Client-side validation is intentionally absent; the service is
// the authority.
type RegisterUserMessage struct {
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Password  string   `json:"password"`
	Role      UserRole `json:"role,omitempty"`
}

// CredentialRecord is the durable subset of a session written to the
// credential store; reading it at startup restores a provisional session
// without a network round-trip.
type CredentialRecord struct {
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// restoredUserID is the placeholder id assigned to sessions rebuilt from a
// credential record before any network call confirms the account.
const restoredUserID int64 = 1

const restoredEmailDomain = "go4itsports.com"

// Synthesize rebuilds a provisional User from the persisted record.
func (r *CredentialRecord) Synthesize() *User {
	if r == nil {
		return nil
	}
	return &User{
		ID:       restoredUserID,
		Username: r.Username,
		Name:     r.Name,
		Email:    r.Username + "@" + restoredEmailDomain,
		Role:     r.Role,
	}
}

// DemoAccount describes a lazily provisioned demo login: when its
// identifier/secret pair is submitted, the manager registers the payload
// first and swallows the already-exists failure.
type DemoAccount struct {
	Secret       string
	Registration RegisterUserMessage
}

// DemoAccounts maps login identifiers to their provisioning payloads.
type DemoAccounts map[string]DemoAccount

// Lookup returns the provisioning entry for the pair, if any.
func (d DemoAccounts) Lookup(identifier, secret string) (DemoAccount, bool) {
	acct, ok := d[strings.TrimSpace(identifier)]
	if !ok || acct.Secret != secret {
		return DemoAccount{}, false
	}
	return acct, true
}

// DefaultDemoAccounts returns the platform's stock demo logins.
func DefaultDemoAccounts() DemoAccounts {
	return DemoAccounts{
		"alexjohnson": {
			Secret: "password123",
			Registration: RegisterUserMessage{
				Username:  "alexjohnson",
				FirstName: "Alex",
				LastName:  "Johnson",
				Email:     "alexjohnson@" + restoredEmailDomain,
				Password:  "password123",
				Role:      RoleAthlete,
			},
		},
		"coachwilliams": {
			Secret: "password123",
			Registration: RegisterUserMessage{
				Username:  "coachwilliams",
				FirstName: "Marcus",
				LastName:  "Williams",
				Email:     "coachwilliams@" + restoredEmailDomain,
				Password:  "password123",
				Role:      RoleCoach,
			},
		},
	}
}

package server

import (
	"strconv"
	"time"

	session "github.com/go4itsports/go-session"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is how long a minted access token stays valid.
	DefaultTokenTTL = 24 * time.Hour

	tokenIssuer   = "go4it-auth"
	tokenAudience = "go4it:web"
)

// TokenService mints and validates the HS256 access tokens the auth
// endpoints hand out. The same token doubles as the session cookie value.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenService returns a service signing with the given key.
func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// Mint issues a token for the account.
func (t *TokenService) Mint(user *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"uid":  user.PublicID.String(),
		"role": user.Role,
		"iss":  tokenIssuer,
		"aud":  tokenAudience,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(t.ttl)),
		"jti":  uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign access token")
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the account id it was
// minted for. Every failure maps to the unauthorized kind.
func (t *TokenService) Validate(raw string) (int64, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerrors.New("unexpected signing method", goerrors.CategoryAuth)
		}
		return t.signingKey, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, session.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, session.ErrUnauthorized
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, session.ErrUnauthorized
	}
	return id, nil
}

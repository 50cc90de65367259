package server

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	session "github.com/go4itsports/go-session"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"
)

const (
	// DefaultCookieName carries the access token back on browser requests.
	DefaultCookieName = "go4it_session"
	// DefaultPhoneRegion is assumed when a registration phone has no
	// country prefix.
	DefaultPhoneRegion = "US"
)

// Config holds server options.
type Config struct {
	SigningKey  string
	TokenTTL    time.Duration
	CookieName  string
	PhoneRegion string
	Debug       bool
	Logger      session.Logger
}

// Server is the auth backend behind the /api/auth endpoints.
type Server struct {
	app    *fiber.App
	users  *UserStore
	tokens *TokenService
	cfg    Config
	logger session.Logger
}

// New wires the fiber app over the given user store.
func New(users *UserStore, cfg Config) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = DefaultPhoneRegion
	}
	if cfg.Logger == nil {
		cfg.Logger = session.DefaultLogger()
	}

	s := &Server{
		app:    fiber.New(fiber.Config{AppName: "go4it-auth"}),
		users:  users,
		tokens: NewTokenService(cfg.SigningKey, cfg.TokenTTL),
		cfg:    cfg,
		logger: cfg.Logger,
	}

	api := s.app.Group("/api/auth")
	api.Post("/login", s.loginHandler)
	api.Post("/register", s.registerHandler)
	api.Get("/me", s.meHandler)
	api.Post("/logout", s.logoutHandler)

	return s
}

// App exposes the underlying fiber app for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// LoginPayload is the credential pair the login endpoint accepts. The
// username field also accepts an email address.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(2, 100)),
		validation.Field(&p.Password, validation.Required, validation.Length(1, 100)),
	)
}

// RegisterPayload is the registration body.
type RegisterPayload struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Validate will validate the payload
func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(2, 60), is.Alphanumeric),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&p.Role, validation.In(
			session.RoleAthlete,
			session.RoleCoach,
			session.RoleScout,
			session.RoleAdmin,
			session.RoleSuperAdmin,
		)),
	)
}

func (s *Server) loginHandler(c *fiber.Ctx) error {
	payload := LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := s.users.Authenticate(c.Context(), payload.Username, payload.Password)
	if err != nil {
		s.logger.Debug("login rejected for %s: %v", payload.Username, err)
		return jsonError(c, fiber.StatusUnauthorized, "Invalid username or password")
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		s.logger.Error("token mint failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Could not create session")
	}

	s.setSessionCookie(c, token)
	return c.JSON(fiber.Map{
		"user":        user.SessionUser(),
		"accessToken": token,
	})
}

func (s *Server) registerHandler(c *fiber.Ctx) error {
	payload := RegisterPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if s.cfg.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("================")
	}

	phone, err := s.normalizePhone(payload.Phone)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid phone number")
	}

	user, err := s.users.Create(c.Context(), CreateUserInput{
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     phone,
		Password:  payload.Password,
		Role:      payload.Role,
	})
	if err != nil {
		if session.IsAlreadyExists(err) {
			return jsonError(c, fiber.StatusConflict, "User already exists")
		}
		s.logger.Error("registration failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Could not create account")
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		s.logger.Error("token mint failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Could not create session")
	}

	s.setSessionCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":        user.SessionUser(),
		"accessToken": token,
	})
}

func (s *Server) meHandler(c *fiber.Ctx) error {
	raw := s.tokenFromRequest(c)
	if raw == "" {
		return jsonError(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	id, err := s.tokens.Validate(raw)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	user, err := s.users.FindByID(c.Context(), id)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	return c.JSON(fiber.Map{"user": user.SessionUser()})
}

func (s *Server) logoutHandler(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Expires:  time.Now().Add(s.tokens.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// tokenFromRequest prefers the bearer header so API clients can override a
// stale cookie.
func (s *Server) tokenFromRequest(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Cookies(s.cfg.CookieName)
}

// normalizePhone formats the number as E.164; empty stays empty.
func (s *Server) normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(raw, s.cfg.PhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number: %s", raw)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ralph-xpert/internal/models"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid token")
)

// AdminSource is the slice of the store the authenticator needs.
type AdminSource interface {
	ListAdmins(ctx context.Context) ([]models.AdminUser, error)
	TouchAdminLogin(ctx context.Context, username string, at time.Time) error
}

// Claims is the JWT payload issued to admins.
type Claims struct {
	Username  string `json:"username"`
	LoginTime string `json:"loginTime"`
	jwt.RegisteredClaims
}

// Session is a verified admin token.
type Session struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	LoginTime string    `json:"loginTime"`
	ExpiresAt time.Time `json:"-"`
}

type Authenticator struct {
	admins AdminSource
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthenticator(admins AdminSource, secret string, ttl time.Duration, logger *zap.Logger) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		admins:  admins,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		revoked: make(map[string]time.Time),
	}
}

// TTL is the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration { return a.ttl }

// Login checks the credentials against the admin accounts and issues a
// signed token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, Session, error) {
	if username == "" || password == "" {
		return "", Session{}, ErrMissingCredentials
	}

	admins, err := a.admins.ListAdmins(ctx)
	if err != nil {
		return "", Session{}, err
	}
	valid := false
	for _, admin := range admins {
		if admin.Username == username && CheckPassword(admin.Password, password) {
			valid = true
			break
		}
	}
	if !valid {
		a.logger.Warn("Admin login rejected", zap.String("username", username))
		return "", Session{}, ErrInvalidCredentials
	}

	now := a.now()
	if err := a.admins.TouchAdminLogin(ctx, username, now); err != nil {
		a.logger.Warn("Failed to record admin login", zap.String("username", username), zap.Error(err))
	}

	session := Session{
		ID:        uuid.NewString(),
		Username:  username,
		LoginTime: now.UTC().Format(time.RFC3339),
		ExpiresAt: now.Add(a.ttl),
	}
	claims := Claims{
		Username:  session.Username,
		LoginTime: session.LoginTime,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Session{}, err
	}
	a.logger.Info("Admin logged in", zap.String("username", username))
	return token, session, nil
}

// Verify validates signature, expiry and revocation of a token.
func (a *Authenticator) Verify(tokenString string) (Session, error) {
	if tokenString == "" {
		return Session{}, ErrNoToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}
	if claims.Username == "" {
		return Session{}, ErrInvalidToken
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return Session{}, ErrInvalidToken
	}

	return Session{
		ID:        claims.ID,
		Username:  claims.Username,
		LoginTime: claims.LoginTime,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates a token until it would have expired anyway.
func (a *Authenticator) Revoke(tokenString string) error {
	session, err := a.Verify(tokenString)
	if err != nil {
		return err
	}

	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, id)
		}
	}
	if session.ID != "" {
		a.revoked[session.ID] = session.ExpiresAt
	}
	return nil
}

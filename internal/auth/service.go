package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"jadwalku/internal/models"
	"jadwalku/internal/redis"
)

const redisSessionPrefix = "session:"

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidSession  = errors.New("invalid session")
	ErrSessionExpired  = errors.New("session expired")
)

// Service gates access behind the single shared application password and
// keeps the resulting login sessions server-side.
type Service struct {
	db             *sql.DB
	cache          *redis.Client
	passwordSum    [sha256.Size]byte
	sessionTTL     time.Duration
	cookieName     string
	headerName     string
	csrfCookieName string
	csrfHeaderName string
}

// NewService constructs an auth service. cache may be nil.
func NewService(db *sql.DB, cache *redis.Client, password string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		db:             db,
		cache:          cache,
		passwordSum:    sha256.Sum256([]byte(password)),
		sessionTTL:     ttl,
		cookieName:     "jadwal_session",
		headerName:     "Authorization",
		csrfCookieName: "csrf_token",
		csrfHeaderName: "X-CSRF-Token",
	}
}

// CheckPassword compares password with the configured secret in constant time.
func (s *Service) CheckPassword(password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(sum[:], s.passwordSum[:]) == 1
}

// Login checks password and opens a new session on success.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	if !s.CheckPassword(password) {
		return "", ErrInvalidPassword
	}
	return s.IssueSession(ctx)
}

// IssueSession mints a random session token and persists it.
func (s *Service) IssueSession(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.sessionTTL)
	for i := 0; i < 5; i++ {
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO login_sessions (token, created_at, expires_at) VALUES (?, ?, ?)`,
			token, now, expiresAt,
		)
		if err == nil {
			if s.cache != nil {
				if err := s.cache.Set(ctx, redisSessionPrefix+token, expiresAt.Unix(), s.sessionTTL); err != nil {
					log.Printf("cache session failed: %v", err)
				}
			}
			return token, nil
		}
	}
	return "", errors.New("could not issue session")
}

// ValidateSession verifies the token exists and has not expired.
func (s *Service) ValidateSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidSession
	}
	if _, err := s.cache.Get(ctx, redisSessionPrefix+token); err == nil {
		return nil
	}

	sess := models.LoginSession{Token: token}
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, expires_at FROM login_sessions WHERE token = ?`, token,
	).Scan(&sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidSession
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	if sess.Expired(time.Now().UTC()) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE token = ?`, token)
		return ErrSessionExpired
	}
	if s.cache != nil {
		if ttl := time.Until(sess.ExpiresAt); ttl > 0 {
			_ = s.cache.Set(ctx, redisSessionPrefix+token, sess.ExpiresAt.Unix(), ttl)
		}
	}
	return nil
}

// RevokeSession deletes a single session. An empty token is a no-op.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Del(ctx, redisSessionPrefix+token); err != nil {
		log.Printf("drop cached session failed: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and reports how many went.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// NewCSRFToken returns a random token used for CSRF protection.
func (s *Service) NewCSRFToken() (string, error) {
	return generateToken()
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionCookieName returns the cookie name storing session tokens.
func (s *Service) SessionCookieName() string {
	return s.cookieName
}

// CSRFCookieName returns the cookie used for CSRF tokens.
func (s *Service) CSRFCookieName() string {
	return s.csrfCookieName
}

// CSRFHeaderName returns the CSRF header name.
func (s *Service) CSRFHeaderName() string {
	return s.csrfHeaderName
}

// SessionTTL reports the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

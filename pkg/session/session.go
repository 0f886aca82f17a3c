// Package session gives every visitor a stable, tamper-proof session
// identity.
//
// The session is nothing more than a random ID with an issue and expiry
// time, carried in an HMAC-signed cookie. Server-side state keyed by the ID
// lives elsewhere (see svc/submission). A session starts on the first
// request through Middleware and ends either at expiry or when Destroy or
// Renew is called.
//
// Several secrets may be configured to rotate keys: new cookies are signed
// with the first one, and any of them verifies.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("session: not found")
	ErrInvalid        = errors.New("session: invalid token")
	ErrExpired        = errors.New("session: expired")
	ErrSecretTooShort = errors.New("session: secret must be at least 32 characters")
)

const minSecretLength = 32

type Config struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"emission_sid"`
	Secrets       []string      `env:"SESSION_SECRET,required" envSeparator:","`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// Session identifies one visitor for a bounded time.
type Session struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL returns the lifetime left at now.
func (s Session) TTL(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

type Manager struct {
	cfg Config
	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	var secrets []string
	for _, s := range cfg.Secrets {
		if s = strings.TrimSpace(s); s != "" {
			if len(s) < minSecretLength {
				return nil, ErrSecretTooShort
			}
			secrets = append(secrets, s)
		}
	}
	if len(secrets) == 0 {
		return nil, ErrSecretTooShort
	}
	cfg.Secrets = secrets
	if cfg.CookieName == "" {
		cfg.CookieName = "emission_sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}

	m := &Manager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the session carried by r.
func (m *Manager) Get(r *http.Request) (Session, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNotFound
	}
	s, err := m.decode(c.Value)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		return Session{}, ErrExpired
	}
	return s, nil
}

// Ensure returns the current session or starts a new one.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (Session, bool) {
	if s, err := m.Get(r); err == nil {
		return s, false
	}
	return m.Renew(w), true
}

// Renew starts a new session regardless of the current one.
func (m *Manager) Renew(w http.ResponseWriter) Session {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(m.cfg.TTL).Truncate(time.Second),
	}
	http.SetCookie(w, m.cookie(m.encode(s), int(m.cfg.TTL.Seconds())))
	return s
}

// Destroy clears the session cookie.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// Middleware makes sure every request carries a session and stores it in the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := m.Ensure(w, r)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), s)))
	})
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) encode(s Session) string {
	payload := fmt.Sprintf("%s|%d|%d", s.ID, s.IssuedAt.Unix(), s.ExpiresAt.Unix())
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sign(m.cfg.Secrets[0], payload)
}

func (m *Manager) decode(token string) (Session, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Session{}, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Session{}, ErrInvalid
	}
	payload := string(raw)

	valid := false
	for _, secret := range m.cfg.Secrets {
		if subtle.ConstantTimeCompare([]byte(sig), []byte(sign(secret, payload))) == 1 {
			valid = true
			break
		}
	}
	if !valid {
		return Session{}, ErrInvalid
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return Session{}, ErrInvalid
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return Session{}, ErrInvalid
	}
	issued, err1 := strconv.ParseInt(parts[1], 10, 64)
	expires, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		return Session{}, ErrInvalid
	}
	return Session{ID: parts[0], IssuedAt: time.Unix(issued, 0), ExpiresAt: time.Unix(expires, 0)}, nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

type contextKey struct{}

func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Extractor exposes the session ID to the logger's context extractors.
func Extractor(ctx context.Context) (slog.Attr, bool) {
	if s, ok := FromContext(ctx); ok {
		return slog.String("session_id", s.ID), true
	}
	return slog.Attr{}, false
}

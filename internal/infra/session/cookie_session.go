package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
)

var (
	// ErrNoSession is returned when the request carries no usable session.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired is returned when the session's expiry has passed.
	ErrSessionExpired = errors.New("session expired")
)

const (
	keyUserID   = "USERID"
	keyUsername = "USERNAME"
	keyExpires  = "EXPIRES"
)

// SessionConfig holds configuration for cookie based sessions.
type SessionConfig struct {
	// Secret is the key used to authenticate session cookies
	Secret string `env:"SECRET" envDefault:"isupipe"`
	// CookieName is the name of the session cookie
	CookieName string `env:"COOKIE_NAME" envDefault:"isupipe_session"`
	// Domain restricts the cookie to the given domain; empty means host-only
	Domain string `env:"DOMAIN" envDefault:""`
	// TTL is how long a login stays valid
	TTL time.Duration `env:"TTL" envDefault:"1h"`
}

// Session is the identity stored in a verified session cookie.
type Session struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

// CookieSessionManager stores sessions in signed cookies.
type CookieSessionManager struct {
	store *sessions.CookieStore
	cfg   SessionConfig
	log   logging.Logger
	now   func() time.Time
}

// NewCookieSessionManager creates a CookieSessionManager with the given configuration.
func NewCookieSessionManager(cfg SessionConfig) *CookieSessionManager {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	//nolint:exhaustruct
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &CookieSessionManager{
		store: store,
		cfg:   cfg,
		log:   logging.GetLogger("infra.session.cookie_session"),
		now:   time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *CookieSessionManager) WithClock(now func() time.Time) *CookieSessionManager {
	m.now = now

	return m
}

// Save starts a session for the given user and writes the cookie to w.
func (m *CookieSessionManager) Save(
	w http.ResponseWriter,
	r *http.Request,
	userID int64,
	username string,
) (Session, error) {
	// A cookie that fails to decode is replaced by the fresh session Get returns alongside the error.
	sess, err := m.store.Get(r, m.cfg.CookieName)
	if err != nil {
		m.log.DebugContext(r.Context(), "discarding undecodable session", "error", err)
	}

	expiresAt := m.now().Add(m.cfg.TTL)

	sess.Values[keyUserID] = userID
	sess.Values[keyUsername] = username
	sess.Values[keyExpires] = expiresAt.Unix()

	if err := sess.Save(r, w); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	return Session{UserID: userID, Username: username, ExpiresAt: time.Unix(expiresAt.Unix(), 0)}, nil
}

// Verify reads and validates the session cookie of r.
// Returns ErrNoSession when there is no session identity and ErrSessionExpired
// when the session is past its expiry.
func (m *CookieSessionManager) Verify(r *http.Request) (Session, error) {
	sess, err := m.store.Get(r, m.cfg.CookieName)
	if err != nil {
		return Session{}, errors.Join(ErrNoSession, err)
	}

	userID, ok := sess.Values[keyUserID].(int64)
	if !ok {
		return Session{}, fmt.Errorf("%w: missing %s", ErrNoSession, keyUserID)
	}

	expires, ok := sess.Values[keyExpires].(int64)
	if !ok {
		return Session{}, fmt.Errorf("%w: missing %s", ErrNoSession, keyExpires)
	}

	username, _ := sess.Values[keyUsername].(string)

	if m.now().Unix() > expires {
		return Session{}, ErrSessionExpired
	}

	return Session{UserID: userID, Username: username, ExpiresAt: time.Unix(expires, 0)}, nil
}

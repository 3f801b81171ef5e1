package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey  = "is_authenticated"
	userName   = "user_name"
	userLogin  = "user_login"
	userRole   = "user_role"
	backendKey = "backend_token"
)

// SessionManager owns the cookie store and the auth middleware built on it.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	ttl     time.Duration
	secure  bool
	csrfKey []byte
	log     *zap.Logger
}

// NewSessionManager builds a cookie store keyed from sessionKey. The hash and
// block keys are derived separately with HKDF so one configured secret
// yields both. secure controls the Secure flag and SameSite mode.
func NewSessionManager(sessionKey, name, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if name == "" {
		return nil, fmt.Errorf("session name is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	hashKey, err := deriveKey(sessionKey, "sudhub session hash", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(sessionKey, "sudhub session block", 32)
	if err != nil {
		return nil, err
	}

	csrfKey, err := deriveKey(sessionKey, "sudhub csrf", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{store: store, name: name, ttl: ttl, secure: secure, csrfKey: csrfKey, log: logger}, nil
}

func deriveKey(secret, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Name is the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// GetSession returns the request's session. A cookie that fails to decode
// (rotated key, tampering) yields a fresh session and a nil error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err == nil {
		return sess, nil
	}
	var cookieErr securecookie.Error
	if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
		sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
		return sess, nil
	}
	return sess, err
}

// Begin starts a signed-in session for u holding the backend token.
func (sm *SessionManager) Begin(w http.ResponseWriter, r *http.Request, u SessionUser, token string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userName] = u.Name
	sess.Values[userLogin] = u.LoginID
	sess.Values[userRole] = u.Role
	sess.Values[backendKey] = token
	sess.Options = sm.options(int(sm.ttl.Seconds()))
	discardRefresh(r)
	return sess.Save(r, w)
}

// End clears the session and expires its cookie.
func (sm *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options = sm.options(-1)
	discardRefresh(r)
	return sess.Save(r, w)
}

func (sm *SessionManager) options(maxAge int) *sessions.Options {
	opts := *sm.store.Options
	opts.MaxAge = maxAge
	return &opts
}

// storeToken writes a refreshed backend token into the session. It must run
// before the response headers are sent.
func (sm *SessionManager) storeToken(w http.ResponseWriter, r *http.Request, token string) {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session reload failed; refreshed token dropped", zap.Error(err))
		return
	}
	if auth, _ := sess.Values[isAuthKey].(bool); !auth {
		return
	}
	sess.Values[backendKey] = token
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("session save failed; refreshed token dropped", zap.Error(err))
	}
}

// discardRefresh drops a pending token refresh so it cannot overwrite a
// session that Begin or End just replaced.
func discardRefresh(r *http.Request) {
	if c, ok := CredentialFrom(r).(*sessionCredential); ok {
		c.take()
	}
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

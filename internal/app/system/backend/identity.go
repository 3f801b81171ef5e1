package backend

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Identity is the signed-in user as the backend reports it.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Whoami resolves the current user.
func (s *Session) Whoami(ctx context.Context) (Identity, error) {
	var out Identity
	if err := s.getJSON(ctx, "whoami", "/whoiam", nil, &out); err != nil {
		return Identity{}, err
	}
	if out.Username == "" {
		return Identity{}, errors.New("whoami: empty username in response")
	}
	return out, nil
}

// Login exchanges an email and password for a credential. The backend
// answers with a Set-Cookie (or a token field) that is handed to the
// session's Credential.
func (s *Session) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := s.send(ctx, "login", http.MethodPut, "/login", nil, body, &out); err != nil {
		return err
	}
	if out.Token != "" && s.cred != nil && out.Token != s.cred.Token() {
		s.cred.Refresh(out.Token)
	}
	return nil
}

// Registration is the payload for a new account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates an account.
func (s *Session) Register(ctx context.Context, reg Registration) error {
	return s.send(ctx, "register", http.MethodPost, "/registration", nil, reg, nil)
}

// Ping reports whether the backend answers HTTP at all. Any status counts
// as reachable; only transport failures are returned.
func (s *Session) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, "ping", http.MethodGet, "/whoiam", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return nil
}

// MemoryCredential is a Credential held in memory. Login uses one to catch
// the freshly issued token before a session exists.
type MemoryCredential struct {
	mu    sync.Mutex
	token string
}

// NewMemoryCredential returns a credential seeded with token.
func NewMemoryCredential(token string) *MemoryCredential {
	return &MemoryCredential{token: token}
}

func (m *MemoryCredential) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryCredential) Refresh(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// SessionKeyID is the cookie value holding the chat session id.
const SessionKeyID = "session_id"

// SessionStore keeps the chat session id of an HTTP client in a signed
// cookie. The conversation itself lives server side in services.SessionService.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionStore creates a cookie store for the named cookie.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive a 32-byte
// signing key. An empty secret gets a random key, so cookies do not survive
// a restart.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - SameSite: Lax (cookie sent on top-level navigation only)
// - Secure: from configuration (HTTPS only in production)
func NewSessionStore(name, secret string, ttl time.Duration, secure bool) *SessionStore {
	var key []byte
	if secret == "" {
		key = securecookie.GenerateRandomKey(32)
	} else {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, name: name}
}

// ID returns the session id carried by the request cookie, or "" when the
// cookie is missing or its signature does not verify.
func (s *SessionStore) ID(r *http.Request) string {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return ""
	}
	id, _ := session.Values[SessionKeyID].(string)
	return id
}

// Save writes a cookie carrying id to the response.
// Must be called before the response header is written.
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, id string) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[SessionKeyID] = id
	return session.Save(r, w)
}

// Clear expires the cookie.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	delete(session.Values, SessionKeyID)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

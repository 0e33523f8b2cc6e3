// Package session provides the demo sign-in used by the dashboard. It keeps
// the signed-in user in a signed cookie; there are no passwords.
package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "cardbook_session"
	userKey    = "user"
)

var ErrInvalidUser = errors.New("invalid user")

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Plan  string `json:"plan,omitempty"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidUser
	}
	return nil
}

// Provider answers who is signed in for a request.
type Provider interface {
	CurrentUser(r *http.Request) (*User, bool)
}

// CookieProvider stores the user in a gorilla session cookie.
type CookieProvider struct {
	store sessions.Store
}

func NewCookieProvider(secret []byte, secure bool) *CookieProvider {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieProvider{store: store}
}

func (p *CookieProvider) CurrentUser(r *http.Request) (*User, bool) {
	sess, err := p.store.Get(r, cookieName)
	if err != nil {
		return nil, false
	}
	raw, ok := sess.Values[userKey].(string)
	if !ok {
		return nil, false
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false
	}
	return &u, true
}

func (p *CookieProvider) Login(w http.ResponseWriter, r *http.Request, u User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = u.Email
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	// A stale or tampered cookie yields a fresh session here, not an error worth surfacing.
	sess, _ := p.store.Get(r, cookieName)
	sess.Values[userKey] = string(raw)
	return sess.Save(r, w)
}

func (p *CookieProvider) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := p.store.Get(r, cookieName)
	delete(sess.Values, userKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// StaticProvider always reports the same user (or nobody when nil).
type StaticProvider struct {
	User *User
}

func (p StaticProvider) CurrentUser(*http.Request) (*User, bool) {
	return p.User, p.User != nil
}

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func cookiesFrom(rec *httptest.ResponseRecorder) []*http.Cookie {
	return rec.Result().Cookies()
}

func TestCookieProvider_LoginLogout(t *testing.T) {
	p := NewCookieProvider(secret, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := p.CurrentUser(req)
	assert.False(t, ok)

	rec := httptest.NewRecorder()
	require.NoError(t, p.Login(rec, req, User{Name: "Ann", Email: "ann@acme.io"}))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookiesFrom(rec) {
		req.AddCookie(c)
	}
	u, ok := p.CurrentUser(req)
	require.True(t, ok)
	assert.Equal(t, User{ID: "ann@acme.io", Name: "Ann", Email: "ann@acme.io"}, *u)

	rec = httptest.NewRecorder()
	require.NoError(t, p.Logout(rec, req))
	cookies := cookiesFrom(rec)
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestCookieProvider_RejectsForeignCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, NewCookieProvider([]byte("another-secret-another-secret-32"), false).Login(rec, req, User{Email: "a@b.c"}))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookiesFrom(rec) {
		req.AddCookie(c)
	}
	_, ok := NewCookieProvider(secret, false).CurrentUser(req)
	assert.False(t, ok)
}

func TestCookieProvider_InvalidUser(t *testing.T) {
	p := NewCookieProvider(secret, false)
	err := p.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), User{Name: "no mail"})
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestStaticProvider(t *testing.T) {
	_, ok := StaticProvider{}.CurrentUser(nil)
	assert.False(t, ok)

	u, ok := StaticProvider{User: &User{Email: "x@y.z"}}.CurrentUser(nil)
	require.True(t, ok)
	assert.Equal(t, "x@y.z", u.Email)
}

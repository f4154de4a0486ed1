package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdffeed/pdffeed/internal/auth/password"
	"github.com/pdffeed/pdffeed/internal/auth/token"
	"github.com/pdffeed/pdffeed/internal/domain"
)

type fakeUsers struct {
	byName map[string]domain.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byName: map[string]domain.User{}} }

func (f *fakeUsers) Close()                     {}
func (f *fakeUsers) Ping(context.Context) error { return nil }
func (f *fakeUsers) CreateUser(ctx context.Context, username, email, passHash string) (domain.User, error) {
	if _, ok := f.byName[username]; ok {
		return domain.User{}, domain.ErrConflict
	}
	for _, u := range f.byName {
		if u.Email == email {
			return domain.User{}, domain.ErrConflict
		}
	}
	u := domain.User{
		ID: int64(len(f.byName) + 1), Username: username, Email: email,
		PassHash: passHash, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.byName[username] = u
	return u, nil
}
func (f *fakeUsers) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
func (f *fakeUsers) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range f.byName {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (f *fakeUsers) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestRegisterThenLogin(t *testing.T) {
	users := newFakeUsers()
	hasher := password.NewDefault()
	tokens := token.New("test-secret-at-least-32-bytes-long!", "pdffeed", time.Hour)

	reg := &HandlerRegister{Log: discard(), Users: users, Hasher: hasher, Tokens: tokens}
	login := &HandlerLogin{Log: discard(), Users: users, Hasher: hasher, Tokens: tokens}

	doRegister := func(body map[string]string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		r := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		reg.Register(rec, r)
		return rec
	}

	rec := doRegister(map[string]string{
		"username": "Frank", "email": "frank@example.com", "password": "long-enough-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.AccessToken, "register must auto-login")
	assert.Equal(t, "bearer", created.TokenType)
	assert.Equal(t, "frank", created.User.Username, "username is lowercased")

	t.Run("duplicate username is a validation error", func(t *testing.T) {
		rec := doRegister(map[string]string{
			"username": "frank", "email": "other@example.com", "password": "long-enough-pass",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email is a validation error", func(t *testing.T) {
		rec := doRegister(map[string]string{
			"username": "frank2", "email": "frank@example.com", "password": "long-enough-pass",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		rec := doRegister(map[string]string{
			"username": "gina", "email": "gina@example.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login via form", func(t *testing.T) {
		form := url.Values{"username": {"Frank"}, "password": {"long-enough-pass"}}
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		login.Login(rec, r)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp authResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)

		claims, err := tokens.Parse(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
		assert.Equal(t, "frank", claims.Username)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		form := url.Values{"username": {"frank"}, "password": {"wrong-password!"}}
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		login.Login(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user is unauthorized, not not_found", func(t *testing.T) {
		form := url.Values{"username": {"nobody"}, "password": {"whatever-pass"}}
		r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		login.Login(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

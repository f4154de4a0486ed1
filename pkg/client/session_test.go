package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("password") != "good-password" {
			apiError(w, 401, "unauthorized", "unauthorized")
			return
		}
		json.NewEncoder(w).Encode(AuthResult{
			AccessToken: "tok-login",
			TokenType:   "bearer",
			User:        User{ID: 3, Username: r.PostFormValue("username")},
		})
	})
	mux.HandleFunc("DELETE /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"revoked": "jti"})
	})
	mux.HandleFunc("GET /api/feeds", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-login" {
			apiError(w, 401, "unauthorized", "unauthorized")
			return
		}
		json.NewEncoder(w).Encode(feedList{Feeds: []Feed{{ID: 1, Title: "doc"}}, Total: 1})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLoginTransition(t *testing.T) {
	srv := authServer(t)
	store := NewMemStore()
	s := NewSession(New(srv.URL, store), store)

	state, _ := s.State()
	require.Equal(t, StateAnonymous, state)

	var transitions []State
	unsub := s.Subscribe(func(st State, _ User) { transitions = append(transitions, st) })
	defer unsub()

	require.NoError(t, s.Login(context.Background(), "carol", "good-password"))

	state, user := s.State()
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, "carol", user.Username)
	// первый вызов — текущее состояние при подписке, второй — переход
	assert.Equal(t, []State{StateAnonymous, StateAuthenticated}, transitions)

	creds, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok, "credentials must be persisted")
	assert.Equal(t, "tok-login", creds.AccessToken)
	assert.Equal(t, int64(3), creds.User.ID)
}

func TestSessionLoginFailureStaysAnonymous(t *testing.T) {
	srv := authServer(t)
	store := NewMemStore()
	s := NewSession(New(srv.URL, store), store)

	err := s.Login(context.Background(), "carol", "bad")
	require.Error(t, err)
	assert.True(t, IsAuth(err))

	state, _ := s.State()
	assert.Equal(t, StateAnonymous, state)
	_, ok, _ := store.Load()
	assert.False(t, ok)
}

func TestSessionOptimisticRestore(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Save(Credentials{AccessToken: "tok-old", User: User{ID: 5, Username: "dave"}}))

	// никакого сетевого вызова при создании
	s := NewSession(New("http://127.0.0.1:1", store), store)
	state, user := s.State()
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, "dave", user.Username)
}

func TestSessionSelfHealOn401(t *testing.T) {
	srv := authServer(t)
	store := NewMemStore()
	// протухший токен: сервер ответит 401
	require.NoError(t, store.Save(Credentials{AccessToken: "tok-stale", User: User{ID: 5}}))

	s := NewSession(New(srv.URL, store), store)
	state, _ := s.State()
	require.Equal(t, StateAuthenticated, state, "restore is optimistic")

	feeds, err := s.Feeds(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.NotNil(t, feeds, "lists degrade to empty, not nil")
	assert.Empty(t, feeds)

	state, _ = s.State()
	assert.Equal(t, StateAnonymous, state, "AuthError must drop the session")
	_, ok, _ := store.Load()
	assert.False(t, ok, "stale credentials must be cleared")
}

func TestSessionLogout(t *testing.T) {
	srv := authServer(t)
	store := NewMemStore()
	s := NewSession(New(srv.URL, store), store)
	require.NoError(t, s.Login(context.Background(), "carol", "good-password"))

	require.NoError(t, s.Logout(context.Background()))

	state, _ := s.State()
	assert.Equal(t, StateAnonymous, state)
	_, ok, _ := store.Load()
	assert.False(t, ok)
}

func TestSessionInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/comments", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Comment{ID: 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemStore()
	store.Save(Credentials{AccessToken: "tok", User: User{ID: 1}})
	s := NewSession(New(srv.URL, store), store)

	done := make(chan error, 1)
	go func() {
		_, err := s.PostComment(context.Background(), 1, "first")
		done <- err
	}()

	// ждём, пока первый запрос дойдёт до сервера
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.PostComment(context.Background(), 1, "duplicate")
	require.Error(t, err)
	assert.True(t, IsValidation(err), "double submit must be rejected locally")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

package share

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdffeed/pdffeed/internal/domain"
)

// fakeStore — репозитории в памяти, достаточно для проверки логики ручек.
type fakeStore struct {
	users      map[domain.UserID]domain.User
	feeds      map[domain.FeedID]domain.Feed
	pubShares  map[string]domain.PublicShare
	userShares map[int64]domain.UserShare
	comments   []domain.Comment
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[domain.UserID]domain.User{},
		feeds:      map[domain.FeedID]domain.Feed{},
		pubShares:  map[string]domain.PublicShare{},
		userShares: map[int64]domain.UserShare{},
		nextID:     100,
	}
}

func (f *fakeStore) id() int64 { f.nextID++; return f.nextID }

// --- domain.UsersRepo ---

func (f *fakeStore) Close()                        {}
func (f *fakeStore) Ping(context.Context) error    { return nil }
func (f *fakeStore) CreateUser(ctx context.Context, username, email, passHash string) (domain.User, error) {
	u := domain.User{ID: f.id(), Username: username, Email: email, PassHash: passHash, IsActive: true}
	f.users[u.ID] = u
	return u, nil
}
func (f *fakeStore) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (f *fakeStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (f *fakeStore) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// --- domain.FeedsRepo ---

func (f *fakeStore) CreateFeed(ctx context.Context, fd domain.Feed) (domain.Feed, error) {
	fd.ID = f.id()
	f.feeds[fd.ID] = fd
	return fd, nil
}
func (f *fakeStore) FeedByID(ctx context.Context, id domain.FeedID) (domain.Feed, error) {
	fd, ok := f.feeds[id]
	if !ok {
		return domain.Feed{}, domain.ErrNotFound
	}
	return fd, nil
}
func (f *fakeStore) FeedsByHost(ctx context.Context, host domain.UserID) ([]domain.Feed, error) {
	var out []domain.Feed
	for _, fd := range f.feeds {
		if fd.HostID == host {
			out = append(out, fd)
		}
	}
	return out, nil
}
func (f *fakeStore) FeedsSharedWith(ctx context.Context, user domain.UserID) ([]domain.Feed, error) {
	var out []domain.Feed
	for _, s := range f.userShares {
		if s.IsActive && s.SharedWithID == user {
			if fd, ok := f.feeds[s.FeedID]; ok {
				out = append(out, fd)
			}
		}
	}
	return out, nil
}
func (f *fakeStore) SearchFeeds(ctx context.Context, host domain.UserID, query string) ([]domain.Feed, error) {
	return f.FeedsByHost(ctx, host)
}
func (f *fakeStore) DeleteFeed(ctx context.Context, id domain.FeedID, host domain.UserID) error {
	fd, ok := f.feeds[id]
	if !ok || fd.HostID != host {
		return domain.ErrNotFound
	}
	delete(f.feeds, id)
	return nil
}

// --- domain.CommentsRepo ---

func (f *fakeStore) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	c.ID = f.id()
	if c.UserID != nil {
		if u, ok := f.users[*c.UserID]; ok {
			c.CommenterName = u.Username
		}
	}
	f.comments = append(f.comments, c)
	return c, nil
}
func (f *fakeStore) CommentsByFeed(ctx context.Context, feed domain.FeedID) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.comments {
		if c.FeedID == feed {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- domain.SharesRepo ---

func (f *fakeStore) CreatePublicShare(ctx context.Context, s domain.PublicShare) (domain.PublicShare, error) {
	s.ID = f.id()
	f.pubShares[s.ShareToken] = s
	return s, nil
}
func (f *fakeStore) PublicShareByToken(ctx context.Context, token string) (domain.PublicShare, error) {
	s, ok := f.pubShares[token]
	if !ok {
		return domain.PublicShare{}, domain.ErrNotFound
	}
	return s, nil
}
func (f *fakeStore) CreateUserShare(ctx context.Context, s domain.UserShare) (domain.UserShare, error) {
	s.ID = f.id()
	f.userShares[s.ID] = s
	return s, nil
}
func (f *fakeStore) ActiveUserShare(ctx context.Context, feed domain.FeedID, user domain.UserID) (domain.UserShare, error) {
	for _, s := range f.userShares {
		if s.IsActive && s.FeedID == feed && s.SharedWithID == user {
			return s, nil
		}
	}
	return domain.UserShare{}, domain.ErrNotFound
}
func (f *fakeStore) UserShareByID(ctx context.Context, id int64) (domain.UserShare, error) {
	s, ok := f.userShares[id]
	if !ok {
		return domain.UserShare{}, domain.ErrNotFound
	}
	return s, nil
}
func (f *fakeStore) DeactivateUserShare(ctx context.Context, id int64) error {
	s, ok := f.userShares[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	f.userShares[id] = s
	return nil
}
func (f *fakeStore) UserSharesByFeed(ctx context.Context, feed domain.FeedID) ([]domain.UserShare, error) {
	var out []domain.UserShare
	for _, s := range f.userShares {
		if s.IsActive && s.FeedID == feed {
			out = append(out, s)
		}
	}
	return out, nil
}

var (
	_ domain.UsersRepo    = (*fakeStore)(nil)
	_ domain.FeedsRepo    = (*fakeStore)(nil)
	_ domain.CommentsRepo = (*fakeStore)(nil)
	_ domain.SharesRepo   = (*fakeStore)(nil)
)

// --- сцена ---

// fakeCache — in-memory Cache, считает инкременты версионных ключей
type fakeCache struct {
	kv    map[string][]byte
	incrs map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{kv: map[string][]byte{}, incrs: map[string]int64{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.kv[key]
	return v, ok, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	c.kv[key] = val
	return nil
}
func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.kv, k)
	}
	return nil
}
func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.incrs[key]++
	c.kv[key] = []byte(strconv.FormatInt(c.incrs[key], 10))
	return c.incrs[key], nil
}
func (c *fakeCache) SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	if _, ok := c.kv[key]; ok {
		return false, nil
	}
	c.kv[key] = val
	return true, nil
}
func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.kv[key]
	return ok, nil
}
func (c *fakeCache) Ping(context.Context) error { return nil }
func (c *fakeCache) Close()                     {}

func testHandler(f *fakeStore) *Handler {
	return &Handler{
		Log:      log.New(io.Discard, "", 0),
		Users:    f,
		Feeds:    f,
		Shares:   f,
		Comments: f,
		Cache:    newFakeCache(),
		BaseURL:  "https://pdffeed.test",
	}
}

func seedScene(f *fakeStore) (owner, grantee, stranger domain.User, fd domain.Feed) {
	owner = domain.User{ID: 1, Username: "owner", Email: "owner@example.com", IsActive: true}
	grantee = domain.User{ID: 2, Username: "grantee", Email: "grantee@example.com", IsActive: true}
	stranger = domain.User{ID: 3, Username: "stranger", Email: "stranger@example.com", IsActive: true}
	f.users[1], f.users[2], f.users[3] = owner, grantee, stranger

	fd = domain.Feed{ID: 10, HostID: owner.ID, Title: "report", MIME: "application/pdf"}
	f.feeds[fd.ID] = fd
	return
}

func asUser(r *http.Request, u domain.User) *http.Request {
	return r.WithContext(domain.WithUser(r.Context(), u))
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body domain.APIErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCreatePublicShare(t *testing.T) {
	f := newFakeStore()
	owner, _, stranger, fd := seedScene(f)
	h := testHandler(f)

	post := func(u domain.User, feedID int64, days int) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(createPublicRequest{FeedID: feedID, ExpiresInDays: days})
		r := httptest.NewRequest("POST", "/api/share/public", bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		h.CreatePublic(rec, asUser(r, u))
		return rec
	}

	t.Run("owner gets token and url", func(t *testing.T) {
		rec := post(owner, fd.ID, 7)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp publicShareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ShareToken)
		assert.Equal(t, "https://pdffeed.test/api/share/public/"+resp.ShareToken, resp.ShareURL)
		require.NotNil(t, resp.ExpiresAt)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 7), *resp.ExpiresAt, time.Minute)
	})

	t.Run("no expiry means perpetual", func(t *testing.T) {
		rec := post(owner, fd.ID, 0)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp publicShareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Nil(t, resp.ExpiresAt)
	})

	t.Run("non-owner sees not_found", func(t *testing.T) {
		rec := post(stranger, fd.ID, 0)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", errCode(t, rec))
	})

	t.Run("unknown feed", func(t *testing.T) {
		rec := post(owner, 999, 0)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPublicTokenAccess(t *testing.T) {
	f := newFakeStore()
	_, _, _, fd := seedScene(f)
	h := testHandler(f)

	past := time.Now().UTC().Add(-time.Hour)
	f.pubShares["live-token"] = domain.PublicShare{ID: 50, FeedID: fd.ID, ShareToken: "live-token", IsActive: true}
	f.pubShares["dead-token"] = domain.PublicShare{ID: 51, FeedID: fd.ID, ShareToken: "dead-token", IsActive: true, ExpiresAt: &past}
	f.pubShares["off-token"] = domain.PublicShare{ID: 52, FeedID: fd.ID, ShareToken: "off-token", IsActive: false}

	resolve := func(token string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/share/public/"+token, nil)
		r.SetPathValue("token", token)
		rec := httptest.NewRecorder()
		h.ResolvePublic(rec, r)
		return rec
	}

	t.Run("valid token resolves anonymously", func(t *testing.T) {
		rec := resolve("live-token")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp resolveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, fd.ID, resp.Feed.ID)
		assert.Equal(t, "report", resp.Feed.Title)
	})

	t.Run("expired token is indistinguishable from unknown", func(t *testing.T) {
		for _, token := range []string{"dead-token", "off-token", "no-such-token"} {
			rec := resolve(token)
			assert.Equal(t, http.StatusNotFound, rec.Code, token)
			assert.Equal(t, "not_found", errCode(t, rec), token)
		}
	})
}

func TestPublicComments(t *testing.T) {
	f := newFakeStore()
	owner, _, _, fd := seedScene(f)
	h := testHandler(f)
	f.pubShares["tok"] = domain.PublicShare{ID: 50, FeedID: fd.ID, ShareToken: "tok", IsActive: true}

	post := func(body, name string, sess *domain.User) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(createCommentRequest{Body: body, CommenterName: name})
		r := httptest.NewRequest("POST", "/api/share/public/tok/comments", bytes.NewReader(raw))
		r.SetPathValue("token", "tok")
		if sess != nil {
			r = asUser(r, *sess)
		}
		rec := httptest.NewRecorder()
		h.CreatePublicComment(rec, r)
		return rec
	}

	t.Run("anonymous with name", func(t *testing.T) {
		rec := post("nice work", "  Guest Reader  ", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		var c domain.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		assert.Nil(t, c.UserID)
		assert.Equal(t, "Guest Reader", c.CommenterName)
	})

	t.Run("anonymous without name rejected", func(t *testing.T) {
		rec := post("hello", "   ", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_params", errCode(t, rec))
	})

	t.Run("session wins over passed name", func(t *testing.T) {
		rec := post("mine", "Impostor", &owner)
		require.Equal(t, http.StatusCreated, rec.Code)
		var c domain.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
		require.NotNil(t, c.UserID)
		assert.Equal(t, owner.ID, *c.UserID)
		assert.Equal(t, "owner", c.CommenterName)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		rec := post("   ", "Guest", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list returns them back", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/share/public/tok/comments", nil)
		r.SetPathValue("token", "tok")
		rec := httptest.NewRecorder()
		h.PublicComments(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp commentsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("invalidates owner feed lists", func(t *testing.T) {
		cache := h.Cache.(*fakeCache)
		key := domain.CacheKeyFeedListVersion(owner.ID)
		before := cache.incrs[key]

		rec := post("one more", "Guest", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, before+1, cache.incrs[key], "версия списков владельца должна вырасти")
	})
}

func TestCreateUserShare(t *testing.T) {
	newScene := func() (*fakeStore, *Handler, domain.User, domain.User, domain.User, domain.Feed) {
		f := newFakeStore()
		owner, grantee, stranger, fd := seedScene(f)
		return f, testHandler(f), owner, grantee, stranger, fd
	}

	post := func(h *Handler, u domain.User, feedID int64, email string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(createUserShareRequest{FeedID: feedID, Email: email})
		r := httptest.NewRequest("POST", "/api/share/user", bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		h.CreateUserShare(rec, asUser(r, u))
		return rec
	}

	t.Run("owner shares to grantee", func(t *testing.T) {
		_, h, owner, _, _, fd := newScene()
		rec := post(h, owner, fd.ID, "grantee@example.com")
		require.Equal(t, http.StatusCreated, rec.Code)
		var s domain.UserShare
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		assert.True(t, s.IsActive)
		assert.Equal(t, fd.ID, s.FeedID)
	})

	t.Run("stranger cannot share foreign feed", func(t *testing.T) {
		_, h, _, _, stranger, fd := newScene()
		rec := post(h, stranger, fd.ID, "grantee@example.com")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", errCode(t, rec))
	})

	t.Run("grantee may re-share", func(t *testing.T) {
		f, h, _, grantee, _, fd := newScene()
		f.userShares[70] = domain.UserShare{ID: 70, FeedID: fd.ID, SharedByID: 1, SharedWithID: grantee.ID, IsActive: true}
		rec := post(h, grantee, fd.ID, "stranger@example.com")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unknown email is 404", func(t *testing.T) {
		_, h, owner, _, _, fd := newScene()
		rec := post(h, owner, fd.ID, "ghost@example.com")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("duplicate active grant is 400", func(t *testing.T) {
		f, h, owner, grantee, _, fd := newScene()
		f.userShares[70] = domain.UserShare{ID: 70, FeedID: fd.ID, SharedByID: owner.ID, SharedWithID: grantee.ID, IsActive: true}
		rec := post(h, owner, fd.ID, "grantee@example.com")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sharing to the owner is pointless", func(t *testing.T) {
		_, h, owner, _, _, fd := newScene()
		rec := post(h, owner, fd.ID, "owner@example.com")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRevokeUserShare(t *testing.T) {
	newScene := func() (*fakeStore, *Handler, domain.User, domain.User, domain.User) {
		f := newFakeStore()
		owner, grantee, stranger, fd := seedScene(f)
		f.userShares[70] = domain.UserShare{ID: 70, FeedID: fd.ID, SharedByID: owner.ID, SharedWithID: grantee.ID, IsActive: true}
		return f, testHandler(f), owner, grantee, stranger
	}

	del := func(h *Handler, u domain.User, id int64) *httptest.ResponseRecorder {
		r := httptest.NewRequest("DELETE", "/api/share/user/"+strconv.FormatInt(id, 10), nil)
		r.SetPathValue("id", strconv.FormatInt(id, 10))
		rec := httptest.NewRecorder()
		h.RevokeUserShare(rec, asUser(r, u))
		return rec
	}

	t.Run("sharer revokes", func(t *testing.T) {
		f, h, owner, _, _ := newScene()
		rec := del(h, owner, 70)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, f.userShares[70].IsActive, "grant must be deactivated, not deleted")
	})

	t.Run("recipient revokes", func(t *testing.T) {
		_, h, _, grantee, _ := newScene()
		rec := del(h, grantee, 70)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("stranger sees not_found", func(t *testing.T) {
		f, h, _, _, stranger := newScene()
		rec := del(h, stranger, 70)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, f.userShares[70].IsActive)
	})

	t.Run("double revoke is not_found", func(t *testing.T) {
		_, h, owner, _, _ := newScene()
		require.Equal(t, http.StatusNoContent, del(h, owner, 70).Code)
		assert.Equal(t, http.StatusNotFound, del(h, owner, 70).Code)
	})
}

func TestSharedWithMe(t *testing.T) {
	f := newFakeStore()
	owner, grantee, stranger, fd := seedScene(f)
	f.userShares[70] = domain.UserShare{ID: 70, FeedID: fd.ID, SharedByID: owner.ID, SharedWithID: grantee.ID, IsActive: true}
	h := testHandler(f)

	list := func(u domain.User) sharedWithMeResponse {
		r := httptest.NewRequest("GET", "/api/share/user", nil)
		rec := httptest.NewRecorder()
		h.SharedWithMe(rec, asUser(r, u))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp sharedWithMeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	assert.Equal(t, 1, list(grantee).Total)
	assert.Equal(t, 0, list(stranger).Total)

	// после ревокации фид пропадает из выдачи
	require.NoError(t, f.DeactivateUserShare(context.Background(), 70))
	assert.Equal(t, 0, list(grantee).Total)
}

package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/v1/feed"
)

// Минимальные фейки: ровно те срезы репозиториев, что нужны ручкам.

type fakeFeeds struct {
	feeds    map[domain.FeedID]domain.Feed
	comments *fakeComments // для comment_count в списках
}

func (f *fakeFeeds) CreateFeed(ctx context.Context, fd domain.Feed) (domain.Feed, error) {
	return fd, nil
}
func (f *fakeFeeds) FeedByID(ctx context.Context, id domain.FeedID) (domain.Feed, error) {
	fd, ok := f.feeds[id]
	if !ok {
		return domain.Feed{}, domain.ErrNotFound
	}
	return fd, nil
}
func (f *fakeFeeds) FeedsByHost(ctx context.Context, host domain.UserID) ([]domain.Feed, error) {
	var out []domain.Feed
	for _, fd := range f.feeds {
		if fd.HostID != host {
			continue
		}
		if f.comments != nil {
			fd.CommentCount = f.comments.countFor(fd.ID)
		}
		out = append(out, fd)
	}
	return out, nil
}
func (f *fakeFeeds) FeedsSharedWith(ctx context.Context, user domain.UserID) ([]domain.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) SearchFeeds(ctx context.Context, host domain.UserID, q string) ([]domain.Feed, error) {
	return nil, nil
}
func (f *fakeFeeds) DeleteFeed(ctx context.Context, id domain.FeedID, host domain.UserID) error {
	return nil
}

type fakeShares struct {
	grants []domain.UserShare
}

func (f *fakeShares) CreatePublicShare(ctx context.Context, s domain.PublicShare) (domain.PublicShare, error) {
	return s, nil
}
func (f *fakeShares) PublicShareByToken(ctx context.Context, token string) (domain.PublicShare, error) {
	return domain.PublicShare{}, domain.ErrNotFound
}
func (f *fakeShares) CreateUserShare(ctx context.Context, s domain.UserShare) (domain.UserShare, error) {
	return s, nil
}
func (f *fakeShares) ActiveUserShare(ctx context.Context, feed domain.FeedID, user domain.UserID) (domain.UserShare, error) {
	for _, g := range f.grants {
		if g.IsActive && g.FeedID == feed && g.SharedWithID == user {
			return g, nil
		}
	}
	return domain.UserShare{}, domain.ErrNotFound
}
func (f *fakeShares) UserShareByID(ctx context.Context, id int64) (domain.UserShare, error) {
	return domain.UserShare{}, domain.ErrNotFound
}
func (f *fakeShares) DeactivateUserShare(ctx context.Context, id int64) error { return nil }
func (f *fakeShares) UserSharesByFeed(ctx context.Context, feed domain.FeedID) ([]domain.UserShare, error) {
	return nil, nil
}

type fakeComments struct {
	created []domain.Comment
}

func (f *fakeComments) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	c.ID = int64(len(f.created) + 1)
	f.created = append(f.created, c)
	return c, nil
}
func (f *fakeComments) CommentsByFeed(ctx context.Context, fid domain.FeedID) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range f.created {
		if c.FeedID == fid {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) countFor(fid domain.FeedID) int {
	n := 0
	for _, c := range f.created {
		if c.FeedID == fid {
			n++
		}
	}
	return n
}

// fakeCache — in-memory Cache без TTL (в тестах время не течёт)
type fakeCache struct {
	kv map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{kv: map[string][]byte{}} }

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
	n, _ := strconv.ParseInt(string(c.kv[key]), 10, 64)
	n++
	c.kv[key] = []byte(fmt.Sprintf("%d", n))
	return n, nil
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

func newHandler() (*Handler, *fakeComments) {
	owner := domain.UserID(1)
	comments := &fakeComments{}
	feeds := &fakeFeeds{
		feeds: map[domain.FeedID]domain.Feed{
			10: {ID: 10, HostID: owner, Title: "report"},
		},
		comments: comments,
	}
	shares := &fakeShares{grants: []domain.UserShare{
		{ID: 70, FeedID: 10, SharedByID: 1, SharedWithID: 2, IsActive: true},
	}}
	return &Handler{
		Log:      log.New(io.Discard, "", 0),
		Feeds:    feeds,
		Shares:   shares,
		Comments: comments,
		Cache:    newFakeCache(),
	}, comments
}

func asUser(r *http.Request, id domain.UserID, name string) *http.Request {
	return r.WithContext(domain.WithUser(r.Context(), domain.User{ID: id, Username: name}))
}

func TestCreateComment(t *testing.T) {
	post := func(h *Handler, userID domain.UserID, feedID int64, body string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(createRequest{FeedID: feedID, Body: body})
		r := httptest.NewRequest("POST", "/api/comments", bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		h.Create(rec, asUser(r, userID, "someone"))
		return rec
	}

	t.Run("owner comments", func(t *testing.T) {
		h, store := newHandler()
		rec := post(h, 1, 10, "first")
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, store.created, 1)
		require.NotNil(t, store.created[0].UserID)
		assert.Equal(t, domain.UserID(1), *store.created[0].UserID)
		assert.Empty(t, store.created[0].CommenterName, "authed comment stores user id only")
	})

	t.Run("grantee comments", func(t *testing.T) {
		h, _ := newHandler()
		rec := post(h, 2, 10, "thanks for sharing")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("stranger sees not_found", func(t *testing.T) {
		h, store := newHandler()
		rec := post(h, 3, 10, "sneaky")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, store.created)
	})

	t.Run("unknown feed", func(t *testing.T) {
		h, _ := newHandler()
		rec := post(h, 1, 999, "void")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		h, _ := newHandler()
		rec := post(h, 1, 10, "   ")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListComments(t *testing.T) {
	h, store := newHandler()
	uid := domain.UserID(1)
	store.created = []domain.Comment{
		{ID: 1, FeedID: 10, UserID: &uid, Body: "one"},
		{ID: 2, FeedID: 10, CommenterName: "Guest", Body: "two"},
		{ID: 3, FeedID: 11, CommenterName: "Other", Body: "elsewhere"},
	}

	get := func(userID domain.UserID, query string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/comments?"+query, nil)
		rec := httptest.NewRecorder()
		h.List(rec, asUser(r, userID, "someone"))
		return rec
	}

	t.Run("grantee lists feed comments", func(t *testing.T) {
		rec := get(2, "feed_id=10")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("stranger blocked", func(t *testing.T) {
		rec := get(3, "feed_id=10")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing feed_id", func(t *testing.T) {
		rec := get(1, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Комментарий меняет comment_count — закешированный список владельца
// обязан обновиться сразу, не дожидаясь TTL.
func TestCreateCommentRefreshesFeedList(t *testing.T) {
	owner := domain.UserID(1)
	comments := &fakeComments{}
	feeds := &fakeFeeds{
		feeds: map[domain.FeedID]domain.Feed{
			10: {ID: 10, HostID: owner, Title: "report"},
		},
		comments: comments,
	}
	shares := &fakeShares{grants: []domain.UserShare{
		{ID: 70, FeedID: 10, SharedByID: 1, SharedWithID: 2, IsActive: true},
	}}
	cache := newFakeCache()

	ch := &Handler{
		Log:      log.New(io.Discard, "", 0),
		Feeds:    feeds,
		Shares:   shares,
		Comments: comments,
		Cache:    cache,
	}
	fh := &feed.Handler{
		Log:     log.New(io.Discard, "", 0),
		Feeds:   feeds,
		Shares:  shares,
		Cache:   cache,
		ListTTL: 60,
	}

	list := func() []domain.Feed {
		r := httptest.NewRequest("GET", "/api/feeds", nil)
		rec := httptest.NewRecorder()
		fh.List(rec, asUser(r, owner, "host"))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Feeds []domain.Feed `json:"feeds"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Feeds
	}

	// прогреваем кеш и убеждаемся, что повтор отдаёт его же
	first := list()
	require.Len(t, first, 1)
	assert.Equal(t, 0, first[0].CommentCount)
	assert.Equal(t, 0, list()[0].CommentCount)

	// комментарий от получателя гранта
	raw, _ := json.Marshal(createRequest{FeedID: 10, Body: "nice report"})
	r := httptest.NewRequest("POST", "/api/comments", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	ch.Create(rec, asUser(r, 2, "grantee"))
	require.Equal(t, http.StatusCreated, rec.Code)

	got := list()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].CommentCount, "список владельца должен увидеть новый комментарий сразу")
}

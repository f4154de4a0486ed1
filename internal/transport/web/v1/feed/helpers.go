package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// queryHash сворачивает параметры выборки в короткий ключ кеша
func queryHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func pathFeedID(r *http.Request) (domain.FeedID, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadParams
	}
	return id, nil
}

// cachedList отдаёт список из кеша либо собирает через load и кладёт обратно.
// Версионные ключи: инвалидация — инкремент версии владельца, старые ключи
// дотлевают по TTL.
func (h *Handler) cachedList(
	ctx context.Context,
	reqID, op string,
	owner domain.UserID,
	hash string,
	load func(context.Context) ([]domain.Feed, error),
) ([]domain.Feed, error) {
	ver, err := h.listVersion(ctx, owner)
	if err != nil {
		logx.Error(h.Log, reqID, op, "cache version failed", err)
		return load(ctx)
	}
	key := domain.CacheKeyFeedList(owner, ver, hash)

	if raw, ok, err := h.Cache.Get(ctx, key); err == nil && ok {
		var feeds []domain.Feed
		if json.Unmarshal(raw, &feeds) == nil {
			logx.Info(h.Log, reqID, op, "cache hit", "key", key)
			return feeds, nil
		}
	}

	feeds, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(feeds); err == nil {
		if err := h.Cache.Set(ctx, key, raw, h.ListTTL); err != nil {
			logx.Error(h.Log, reqID, op, "cache set failed", err, "key", key)
		}
	}
	return feeds, nil
}

func (h *Handler) listVersion(ctx context.Context, owner domain.UserID) (int64, error) {
	key := domain.CacheKeyFeedListVersion(owner)
	raw, ok, err := h.Cache.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return v, nil
		}
	}
	// ключа нет — заводим с единицы
	return h.Cache.Incr(ctx, key)
}

// bumpListVersion инвалидирует все кешированные списки владельца
func (h *Handler) bumpListVersion(ctx context.Context, reqID, op string, owner domain.UserID) {
	v1.BumpFeedListVersion(ctx, h.Log, h.Cache, reqID, op, owner)
}

package v1

import (
	"context"
	"log"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
)

// BumpFeedListVersion инвалидирует кешированные списки владельца фида:
// инкремент версии, старые ключи дотлевают по TTL. Зовётся из любой
// ручки, меняющей содержимое списков (загрузка, удаление, комментарий).
// Ошибка кеша не валит запрос — мутация уже случилась.
func BumpFeedListVersion(ctx context.Context, l *log.Logger, cache domain.Cache, reqID, op string, owner domain.UserID) {
	if _, err := cache.Incr(ctx, domain.CacheKeyFeedListVersion(owner)); err != nil {
		logx.Error(l, reqID, op, "cache invalidate failed", err, "owner", owner)
	}
}

package feed

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// Search godoc
// @Summary     Search own feeds
// @Description Подстрочный поиск по title/description собственных фидов.
// @Tags        feeds
// @Produce     json
// @Security    BearerAuth
// @Param       q query string true "подстрока поиска"
// @Success     200 {object} listResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "feed.search"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	feeds, err := h.cachedList(r.Context(), reqID, op, user.ID, queryHash("search", strings.ToLower(query)),
		func(ctx context.Context) ([]domain.Feed, error) {
			return h.Feeds.SearchFeeds(ctx, user.ID, query)
		})
	if err != nil {
		logx.Error(h.Log, reqID, op, "search failed", err, "user_id", user.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	if feeds == nil {
		feeds = []domain.Feed{}
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", user.ID, "q", query, "total", len(feeds))
	v1.WriteOK(w, r, listResponse{Feeds: feeds, Total: len(feeds)})
}

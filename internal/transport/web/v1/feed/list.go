package feed

import (
	"context"
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type listResponse struct {
	Feeds []domain.Feed `json:"feeds"`
	Total int           `json:"total"`
}

// List godoc
// @Summary     Own feeds
// @Description Собственные фиды пользователя, свежие сверху.
// @Tags        feeds
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} listResponse
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "feed.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	feeds, err := h.cachedList(r.Context(), reqID, op, user.ID, queryHash("own"),
		func(ctx context.Context) ([]domain.Feed, error) {
			return h.Feeds.FeedsByHost(ctx, user.ID)
		})
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "user_id", user.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	if feeds == nil {
		feeds = []domain.Feed{}
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", user.ID, "total", len(feeds))
	v1.WriteOK(w, r, listResponse{Feeds: feeds, Total: len(feeds)})
}

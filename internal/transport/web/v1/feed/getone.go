package feed

import (
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// GetOne godoc
// @Summary     Feed metadata
// @Description Метаданные фида. Доступ: владелец либо получатель активного гранта.
// @Tags        feeds
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "feed id"
// @Success     200 {object} domain.Feed
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "feed.get"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := pathFeedID(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	var user *domain.User
	if u, ok := domain.UserFromCtx(r.Context()); ok {
		user = &u
	}

	dec, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{FeedID: id}, user)
	if err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "feed_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "path", dec.Path.String())
	v1.WriteOK(w, r, fd)
}

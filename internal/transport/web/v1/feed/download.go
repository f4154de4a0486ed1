package feed

import (
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// Download godoc
// @Summary     Feed content
// @Description Отдаёт PDF. Поддерживает Range-запросы.
// @Tags        feeds
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       id path int true "feed id"
// @Param       Range header string false "байтовый диапазон"
// @Success     200 {file} binary
// @Success     206 {file} binary
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds/{id}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "feed.download"
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

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{FeedID: id}, user)
	if err != nil {
		logx.Error(h.Log, reqID, op, "access denied", err, "feed_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	v1.ServeBlob(w, r, h.Log, h.Storage, reqID, op, fd)
}

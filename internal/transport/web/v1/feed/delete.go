package feed

import (
	"errors"
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// Delete godoc
// @Summary     Delete feed
// @Description Удаляет фид вместе с контентом. Только владелец; чужой фид неотличим от несуществующего.
// @Tags        feeds
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "feed id"
// @Success     204 "no content"
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "feed.delete"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	id, err := pathFeedID(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	// ключ хранилища нужен до удаления строки
	fd, err := h.Feeds.FeedByID(r.Context(), id)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if fd.HostID != user.ID {
		// not_found вместо forbidden: не раскрываем существование чужого фида
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	if err := h.Feeds.DeleteFeed(r.Context(), id, user.ID); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "feed_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	// контент вычищаем после строки; битая ссылка в хранилище не страшна
	if err := h.Storage.Delete(r.Context(), fd.StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logx.Error(h.Log, reqID, op, "blob delete failed", err, "key", fd.StorageKey)
	}

	h.bumpListVersion(r.Context(), reqID, op, user.ID)

	logx.Info(h.Log, reqID, op, "ok", "feed_id", id)
	v1.WriteJSON(w, r, http.StatusNoContent, nil)
}

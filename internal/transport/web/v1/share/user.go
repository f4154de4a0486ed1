package share

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type createUserShareRequest struct {
	FeedID domain.FeedID `json:"feed_id"`
	Email  string        `json:"email"`
}

// CreateUserShare godoc
// @Summary     Share feed with a user
// @Description Выдаёт персональный грант по email получателя. Делиться может владелец либо тот, с кем фид уже расшарен.
// @Tags        shares
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body createUserShareRequest true "параметры"
// @Success     201 {object} domain.UserShare
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     403 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/user [post]
func (h *Handler) CreateUserShare(w http.ResponseWriter, r *http.Request) {
	const op = "share.user.create"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	var req createUserShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeedID <= 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !domain.ValidEmail(email) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	fd, err := h.Feeds.FeedByID(r.Context(), req.FeedID)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	// делиться может владелец либо действующий получатель гранта
	if fd.HostID != user.ID {
		if _, err := h.Shares.ActiveUserShare(r.Context(), fd.ID, user.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				v1.WriteDomainError(w, r, domain.ErrForbidden)
				return
			}
			v1.WriteDomainError(w, r, err)
			return
		}
	}

	recipient, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil {
		logx.Error(h.Log, reqID, op, "recipient lookup failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if recipient.ID == fd.HostID || recipient.ID == user.ID {
		// шарить владельцу или самому себе бессмысленно
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	if _, err := h.Shares.ActiveUserShare(r.Context(), fd.ID, recipient.ID); err == nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		v1.WriteDomainError(w, r, err)
		return
	}

	s, err := h.Shares.CreateUserShare(r.Context(), domain.UserShare{
		FeedID:       fd.ID,
		SharedByID:   user.ID,
		SharedWithID: recipient.ID,
		IsActive:     true,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err, "feed_id", fd.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "share_id", s.ID, "recipient", recipient.ID)
	v1.WriteJSON(w, r, http.StatusCreated, s)
}

type sharedWithMeResponse struct {
	Feeds []domain.Feed `json:"feeds"`
	Total int           `json:"total"`
}

// SharedWithMe godoc
// @Summary     Feeds shared with me
// @Description Фиды, расшаренные пользователю активными грантами.
// @Tags        shares
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} sharedWithMeResponse
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/user [get]
func (h *Handler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	const op = "share.user.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	feeds, err := h.Feeds.FeedsSharedWith(r.Context(), user.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "user_id", user.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	if feeds == nil {
		feeds = []domain.Feed{}
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", user.ID, "total", len(feeds))
	v1.WriteOK(w, r, sharedWithMeResponse{Feeds: feeds, Total: len(feeds)})
}

// RevokeUserShare godoc
// @Summary     Revoke user share
// @Description Отзывает грант (is_active=false). Разрешено выдавшему, получателю и владельцу фида.
// @Tags        shares
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "share id"
// @Success     204 "no content"
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/user/{id} [delete]
func (h *Handler) RevokeUserShare(w http.ResponseWriter, r *http.Request) {
	const op = "share.user.revoke"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	s, err := h.Shares.UserShareByID(r.Context(), id)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if !s.IsActive {
		// повторная ревокация неотличима от несуществующего гранта
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	allowed := s.SharedByID == user.ID || s.SharedWithID == user.ID
	if !allowed {
		fd, err := h.Feeds.FeedByID(r.Context(), s.FeedID)
		if err == nil && fd.HostID == user.ID {
			allowed = true
		}
	}
	if !allowed {
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	if err := h.Shares.DeactivateUserShare(r.Context(), id); err != nil {
		logx.Error(h.Log, reqID, op, "revoke failed", err, "share_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "share_id", id)
	v1.WriteJSON(w, r, http.StatusNoContent, nil)
}

type granteesResponse struct {
	Shares []domain.UserShare `json:"shares"`
	Total  int                `json:"total"`
}

// FeedGrantees godoc
// @Summary     Active grants of a feed
// @Description Кому расшарен фид. Только владелец.
// @Tags        shares
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "feed id"
// @Success     200 {object} granteesResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/user/feed/{id} [get]
func (h *Handler) FeedGrantees(w http.ResponseWriter, r *http.Request) {
	const op = "share.user.grantees"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	fd, err := h.Feeds.FeedByID(r.Context(), id)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if fd.HostID != user.ID {
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	shares, err := h.Shares.UserSharesByFeed(r.Context(), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "feed_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	if shares == nil {
		shares = []domain.UserShare{}
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", id, "total", len(shares))
	v1.WriteOK(w, r, granteesResponse{Shares: shares, Total: len(shares)})
}

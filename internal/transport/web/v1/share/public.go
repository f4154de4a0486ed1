package share

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type createPublicRequest struct {
	FeedID        domain.FeedID `json:"feed_id"`
	ExpiresInDays int           `json:"expires_in_days"` // 0 = бессрочно
}

type publicShareResponse struct {
	domain.PublicShare
	ShareURL string `json:"share_url"`
}

func (h *Handler) shareURL(token string) string {
	return strings.TrimRight(h.BaseURL, "/") + "/api/share/public/" + token
}

// CreatePublic godoc
// @Summary     Create public share link
// @Description Выпускает публичный токен на фид. Только владелец.
// @Tags        shares
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body createPublicRequest true "параметры"
// @Success     201 {object} publicShareResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/public [post]
func (h *Handler) CreatePublic(w http.ResponseWriter, r *http.Request) {
	const op = "share.public.create"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	var req createPublicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeedID <= 0 || req.ExpiresInDays < 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	fd, err := h.Feeds.FeedByID(r.Context(), req.FeedID)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if fd.HostID != user.ID {
		// чужой фид неотличим от несуществующего
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	var expires *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
		expires = &t
	}

	s, err := h.Shares.CreatePublicShare(r.Context(), domain.PublicShare{
		FeedID:     fd.ID,
		ShareToken: ksuid.New().String(),
		CreatedBy:  user.ID,
		ExpiresAt:  expires,
		IsActive:   true,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err, "feed_id", fd.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "share_id", s.ID)
	v1.WriteJSON(w, r, http.StatusCreated, publicShareResponse{PublicShare: s, ShareURL: h.shareURL(s.ShareToken)})
}

type resolveResponse struct {
	Feed      domain.Feed `json:"feed"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// ResolvePublic godoc
// @Summary     Resolve public share link
// @Description Метаданные фида по публичному токену. Аутентификация не требуется.
// @Tags        shares
// @Produce     json
// @Param       token path string true "share token"
// @Success     200 {object} resolveResponse
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/public/{token} [get]
func (h *Handler) ResolvePublic(w http.ResponseWriter, r *http.Request) {
	const op = "share.public.resolve"
	reqID := mw.RequestIDFromCtx(r.Context())

	token := r.PathValue("token")
	dec, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{Token: token}, nil)
	if err != nil {
		logx.Error(h.Log, reqID, op, "resolve failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	var expires *time.Time
	if s, err := h.Shares.PublicShareByToken(r.Context(), token); err == nil {
		expires = s.ExpiresAt
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "path", dec.Path.String())
	v1.WriteOK(w, r, resolveResponse{Feed: fd, ExpiresAt: expires})
}

// DownloadPublic godoc
// @Summary     Download via public share link
// @Description Отдаёт PDF по публичному токену. Поддерживает Range.
// @Tags        shares
// @Produce     application/pdf
// @Param       token path string true "share token"
// @Success     200 {file} binary
// @Success     206 {file} binary
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/public/{token}/download [get]
func (h *Handler) DownloadPublic(w http.ResponseWriter, r *http.Request) {
	const op = "share.public.download"
	reqID := mw.RequestIDFromCtx(r.Context())

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{Token: r.PathValue("token")}, nil)
	if err != nil {
		logx.Error(h.Log, reqID, op, "resolve failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	v1.ServeBlob(w, r, h.Log, h.Storage, reqID, op, fd)
}

type commentsResponse struct {
	Comments []domain.Comment `json:"comments"`
	Total    int              `json:"total"`
}

// PublicComments godoc
// @Summary     Comments via public share link
// @Description Комментарии фида по публичному токену, свежие сверху.
// @Tags        shares
// @Produce     json
// @Param       token path string true "share token"
// @Success     200 {object} commentsResponse
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/public/{token}/comments [get]
func (h *Handler) PublicComments(w http.ResponseWriter, r *http.Request) {
	const op = "share.public.comments"
	reqID := mw.RequestIDFromCtx(r.Context())

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{Token: r.PathValue("token")}, nil)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	comments, err := h.Comments.CommentsByFeed(r.Context(), fd.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "feed_id", fd.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "total", len(comments))
	v1.WriteOK(w, r, commentsResponse{Comments: comments, Total: len(comments)})
}

type createCommentRequest struct {
	Body          string `json:"comment_body"`
	CommenterName string `json:"commenter_name"`
}

// CreatePublicComment godoc
// @Summary     Comment via public share link
// @Description Оставляет комментарий по публичному токену. Аноним обязан указать commenter_name; активная сессия побеждает переданное имя.
// @Tags        shares
// @Accept      json
// @Produce     json
// @Param       token path string true "share token"
// @Param       request body createCommentRequest true "комментарий"
// @Success     201 {object} domain.Comment
// @Failure     400 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/share/public/{token}/comments [post]
func (h *Handler) CreatePublicComment(w http.ResponseWriter, r *http.Request) {
	const op = "share.public.comment"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	// сессия опциональна: токен открывает доступ, но авторство берём из неё
	var user *domain.User
	if u, ok := domain.UserFromCtx(r.Context()); ok {
		user = &u
	}

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{Token: r.PathValue("token")}, user)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if !domain.ValidCommentBody(req.Body) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	userID, name, err := domain.CommentIdentity(user, req.CommenterName)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	c, err := h.Comments.CreateComment(r.Context(), domain.Comment{
		FeedID:        fd.ID,
		UserID:        userID,
		CommenterName: name,
		Body:          strings.TrimSpace(req.Body),
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create failed", err, "feed_id", fd.ID)
		v1.WriteDomainError(w, r, err)
		return
	}

	// comment_count в списках владельца изменился
	v1.BumpFeedListVersion(r.Context(), h.Log, h.Cache, reqID, op, fd.HostID)

	logx.Info(h.Log, reqID, op, "ok", "feed_id", fd.ID, "comment_id", c.ID)
	v1.WriteJSON(w, r, http.StatusCreated, c)
}

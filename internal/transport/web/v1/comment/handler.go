// Package comment — комментарии от аутентифицированных пользователей.
// Анонимные комментарии по публичной ссылке живут в пакете share.
package comment

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type Handler struct {
	Log      *log.Logger
	Feeds    domain.FeedsRepo
	Shares   domain.SharesRepo
	Comments domain.CommentsRepo
	Cache    domain.Cache
}

func (h *Handler) access() v1.AccessDeps {
	return v1.AccessDeps{Feeds: h.Feeds, Shares: h.Shares}
}

func queryFeedID(r *http.Request) (domain.FeedID, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("feed_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrBadParams
	}
	return id, nil
}

type listResponse struct {
	Comments []domain.Comment `json:"comments"`
	Total    int              `json:"total"`
}

// List godoc
// @Summary     Feed comments
// @Description Комментарии фида, свежие сверху. Доступ: владелец либо получатель гранта.
// @Tags        comments
// @Produce     json
// @Security    BearerAuth
// @Param       feed_id query int true "feed id"
// @Success     200 {object} listResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/comments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "comment.list"
	reqID := mw.RequestIDFromCtx(r.Context())

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	id, err := queryFeedID(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{FeedID: id}, &user)
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
	v1.WriteOK(w, r, listResponse{Comments: comments, Total: len(comments)})
}

type createRequest struct {
	FeedID domain.FeedID `json:"feed_id"`
	Body   string        `json:"comment_body"`
}

// Create godoc
// @Summary     Post comment
// @Description Оставляет комментарий от имени сессии. Автор — всегда пользователь токена.
// @Tags        comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body createRequest true "комментарий"
// @Success     201 {object} domain.Comment
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     404 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "comment.create"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeedID <= 0 {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if !domain.ValidCommentBody(req.Body) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	_, fd, err := h.access().Resolve(r.Context(), domain.AccessRef{FeedID: req.FeedID}, &user)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	// сессия есть — имя всегда из неё
	userID, name, err := domain.CommentIdentity(&user, "")
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

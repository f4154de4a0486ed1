package auth

import (
	"log"
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type HandlerMe struct {
	Log   *log.Logger
	Users domain.UsersRepo
}

// Me godoc
// @Summary     Current user
// @Description Возвращает профиль владельца токена.
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.User
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/auth/user/me [get]
func (h *HandlerMe) Me(w http.ResponseWriter, r *http.Request) {
	const op = "auth.me"
	reqID := mw.RequestIDFromCtx(r.Context())

	sess, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	// перечитываем из базы: профиль мог измениться после выпуска токена
	u, err := h.Users.UserByID(r.Context(), sess.ID)
	if err != nil {
		logx.Error(h.Log, reqID, op, "load user failed", err, "user_id", sess.ID)
		if err == domain.ErrNotFound {
			v1.WriteDomainError(w, r, domain.ErrUnauth)
			return
		}
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID)
	v1.WriteOK(w, r, u)
}

package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type HandlerLogin struct {
	Log    *log.Logger
	Users  domain.UsersRepo
	Hasher domain.PasswordHasher
	Tokens domain.TokenManager
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

// Login godoc
// @Summary     Authenticate user
// @Description Возвращает JWT при валидных логине и пароле.
// @Tags        auth
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       username formData string true "username"
// @Param       password formData string true "password"
// @Success     200 {object} authResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/auth/login [post]
func (h *HandlerLogin) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.login"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	// Принимаем форму (основной контракт) и JSON (для ручного теста).
	var req loginRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logx.Error(h.Log, reqID, op, "bad json", err)
			v1.WriteDomainError(w, r, domain.ErrBadParams)
			return
		}
	} else {
		_ = r.ParseForm()
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}

	if req.Username == "" || req.Password == "" {
		logx.Error(h.Log, reqID, op, "empty username or password", domain.ErrBadParams)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	// достаём пользователя
	u, err := h.Users.UserByUsername(r.Context(), domain.NormalizeUsername(req.Username))
	if err != nil {
		logx.Error(h.Log, reqID, op, "user not found", err, "username", req.Username)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}
	if !u.IsActive {
		logx.Error(h.Log, reqID, op, "inactive user", domain.ErrUnauth, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	// сверяем пароль
	ok, err := h.Hasher.Verify(req.Password, u.PassHash)
	if err != nil || !ok {
		logx.Error(h.Log, reqID, op, "password verify failed", err, "username", req.Username)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	// выдаём токен
	token, _, err := h.Tokens.Issue(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue token failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "username", u.Username)
	v1.WriteOK(w, r, authResponse{AccessToken: token, TokenType: "bearer", User: u})
}

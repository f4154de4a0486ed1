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

// HandlerRegister обрабатывает POST /api/auth/register
type HandlerRegister struct {
	Log    *log.Logger
	Users  domain.UsersRepo
	Hasher domain.PasswordHasher
	Tokens domain.TokenManager
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary     Register new user
// @Description Регистрация с автологином: в ответе сразу токен и профиль.
// @Tags        auth
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       username formData string true "username"
// @Param       email    formData string true "email"
// @Param       password formData string true "password"
// @Success     201 {object} authResponse
// @Failure     400 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/auth/register [post]
func (h *HandlerRegister) Register(w http.ResponseWriter, r *http.Request) {
	const op = "auth.register"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req registerRequest
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
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	// 1) Валидация (домен); логин храним в нижнем регистре
	username := domain.NormalizeUsername(req.Username)
	if !domain.ValidUsername(username) || !domain.ValidEmail(req.Email) || !domain.ValidPassword(req.Password) {
		logx.Error(h.Log, reqID, op, "validation failed", domain.ErrBadParams, "username", username)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	// 2) Хэш пароля
	hashStr, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logx.Error(h.Log, reqID, op, "hash failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	// 3) Создаём пользователя; unique-конфликт по username/email -> 400
	u, err := h.Users.CreateUser(r.Context(), username, req.Email, hashStr)
	if err != nil {
		logx.Error(h.Log, reqID, op, "create user failed", err, "username", username)
		v1.WriteDomainError(w, r, err)
		return
	}

	// 4) Автологин
	token, _, err := h.Tokens.Issue(r.Context(), u)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue token failed", err, "user_id", u.ID)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "user_id", u.ID, "username", u.Username)
	v1.WriteJSON(w, r, http.StatusCreated, authResponse{AccessToken: token, TokenType: "bearer", User: u})
}

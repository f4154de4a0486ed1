package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
)

// MapDomainError решает HTTP-статус + тело ошибки
func MapDomainError(err error) (int, domain.APIErrorBody) {
	switch {
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, domain.Fail("bad_params", "bad params")
	case errors.Is(err, domain.ErrConflict):
		// дубликат username/email — по контракту это ошибка валидации
		return http.StatusBadRequest, domain.Fail("bad_params", "already registered")
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, domain.Fail("unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.Fail("forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.Fail("not_found", "not found")
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, domain.Fail("method_not_allowed", "method not allowed")
	default:
		// Таймауты/отмены — как 500
		return http.StatusInternalServerError, domain.Fail("unexpected", "unexpected")
	}
}

// WriteJSON пишет успешный ответ без конверта
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", mw.RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead || status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func WriteOK(w http.ResponseWriter, r *http.Request, body any) {
	WriteJSON(w, r, http.StatusOK, body)
}

func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := MapDomainError(err)
	WriteJSON(w, r, status, body)
}

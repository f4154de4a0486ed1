// Package health — liveness/readiness-пробы.
package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type Handler struct {
	Log     *log.Logger
	DB      Pinger
	Cache   Pinger
	Storage Pinger
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Liveness godoc
// @Summary     Liveness probe
// @Tags        health
// @Produce     json
// @Success     200 {object} statusResponse
// @Router      /api/healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	v1.WriteOK(w, r, statusResponse{Status: "ok"})
}

// Readiness godoc
// @Summary     Readiness probe
// @Description Проверяет доступность Postgres, Redis и объектного хранилища.
// @Tags        health
// @Produce     json
// @Success     200 {object} statusResponse
// @Failure     503 {object} statusResponse
// @Router      /api/readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.ready"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ok := true
	for name, p := range map[string]Pinger{"postgres": h.DB, "redis": h.Cache, "storage": h.Storage} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			logx.Error(h.Log, reqID, op, "probe failed", err, "dep", name)
			checks[name] = err.Error()
			ok = false
			continue
		}
		checks[name] = "ok"
	}

	if !ok {
		v1.WriteJSON(w, r, http.StatusServiceUnavailable, statusResponse{Status: "degraded", Checks: checks})
		return
	}
	v1.WriteOK(w, r, statusResponse{Status: "ok", Checks: checks})
}

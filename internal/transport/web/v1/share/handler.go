// Package share — публичные ссылки (capability-токены) и персональные гранты.
package share

import (
	"log"

	"github.com/pdffeed/pdffeed/internal/domain"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type Handler struct {
	Log      *log.Logger
	Users    domain.UsersRepo
	Feeds    domain.FeedsRepo
	Shares   domain.SharesRepo
	Comments domain.CommentsRepo
	Storage  domain.BlobStorage
	Cache    domain.Cache

	// Префикс для share_url в ответах, например https://pdffeed.example.com
	BaseURL string
}

func (h *Handler) access() v1.AccessDeps {
	return v1.AccessDeps{Feeds: h.Feeds, Shares: h.Shares}
}

// Package feed — загрузка, выдача и поиск PDF-фидов.
package feed

import (
	"log"

	"github.com/pdffeed/pdffeed/internal/domain"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

type Handler struct {
	Log     *log.Logger
	Feeds   domain.FeedsRepo
	Shares  domain.SharesRepo
	Storage domain.BlobStorage
	Cache   domain.Cache

	// TTL кешированных списков, сек
	ListTTL int
	// Потолок размера загружаемого PDF, байт
	MaxUpload int64
}

func (h *Handler) access() v1.AccessDeps {
	return v1.AccessDeps{Feeds: h.Feeds, Shares: h.Shares}
}

package feed

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"seehuhn.de/go/pdf"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
	"github.com/pdffeed/pdffeed/internal/transport/web/mw"
	v1 "github.com/pdffeed/pdffeed/internal/transport/web/v1"
)

// Upload godoc
// @Summary     Upload PDF
// @Description Принимает multipart: file (PDF) + title + description. Контент валидируется как PDF до записи в хранилище.
// @Tags        feeds
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "PDF-файл"
// @Param       title formData string true "заголовок"
// @Param       description formData string false "описание"
// @Success     201 {object} domain.Feed
// @Failure     400 {object} domain.APIErrorBody
// @Failure     401 {object} domain.APIErrorBody
// @Failure     500 {object} domain.APIErrorBody
// @Router      /api/feeds [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "feed.upload"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	user, ok := domain.UserFromCtx(r.Context())
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logx.Error(h.Log, reqID, op, "parse multipart failed", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if !domain.ValidTitle(title) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	file, hdr, err := r.FormFile("file")
	if err != nil {
		logx.Error(h.Log, reqID, op, "file field missing", err)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	defer file.Close()

	if err := validatePDF(file, hdr.Size); err != nil {
		logx.Error(h.Log, reqID, op, "pdf validation failed", err, "filename", hdr.Filename)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logx.Error(h.Log, reqID, op, "seek failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	put, err := h.Storage.Put(r.Context(), file, hdr.Filename, "application/pdf")
	if err != nil {
		logx.Error(h.Log, reqID, op, "storage put failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	feed, err := h.Feeds.CreateFeed(r.Context(), domain.Feed{
		HostID:      user.ID,
		Title:       title,
		Description: description,
		MIME:        "application/pdf",
		SizeBytes:   put.Size,
		StorageKey:  put.StorageKey,
		SHA256:      put.SHA256,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "create feed failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	h.bumpListVersion(r.Context(), reqID, op, user.ID)

	logx.Info(h.Log, reqID, op, "ok", "feed_id", feed.ID, "size", put.Size)
	v1.WriteJSON(w, r, http.StatusCreated, feed)
}

// validatePDF парсит структуру документа: magic-байт недостаточно,
// принимаем только то, что реально открывается как PDF с каталогом.
func validatePDF(f multipart.File, size int64) error {
	rd, err := pdf.NewReader(f, size, nil)
	if err != nil {
		return err
	}
	cat, err := rd.GetCatalog()
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.ErrBadParams
	}
	return nil
}

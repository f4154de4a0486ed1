package v1

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/pdffeed/pdffeed/internal/domain"
	"github.com/pdffeed/pdffeed/internal/transport/web/logx"
)

// ServeBlob стримит контент фида из хранилища с учётом Range-заголовка.
// Общий для прямой отдачи и отдачи по публичному токену.
func ServeBlob(
	w http.ResponseWriter,
	r *http.Request,
	l *log.Logger,
	storage domain.BlobStorage,
	reqID, op string,
	fd domain.Feed,
) {
	rc, contentLen, contentRange, contentType, err := storage.Get(r.Context(), fd.StorageKey, r.Header.Get("Range"))
	if err != nil {
		logx.Error(l, reqID, op, "storage get failed", err, "feed_id", fd.ID)
		WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = fd.MIME
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", contentLen))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fd.Title+".pdf"))
	w.Header().Set("X-Request-ID", reqID)

	status := http.StatusOK
	if contentRange != "" {
		w.Header().Set("Content-Range", contentRange)
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		// клиент мог оборвать соединение; заголовки уже ушли
		logx.Error(l, reqID, op, "stream interrupted", err, "feed_id", fd.ID)
		return
	}
	logx.Info(l, reqID, op, "ok", "feed_id", fd.ID, "bytes", contentLen)
}

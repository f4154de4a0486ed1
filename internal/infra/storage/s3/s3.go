package s3

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdffeed/pdffeed/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

type Storage struct {
	cl     *minio.Client
	bucket string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{cl: cl, bucket: cfg.Bucket}, nil
}

var _ domain.BlobStorage = (*Storage)(nil)

// Ping проверяет доступность бакета (для readiness-пробы).
func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// Put загружает поток и возвращает итоговый ключ вида "sha256/<hex>" и размер.
func (s *Storage) Put(ctx context.Context, r io.Reader, hintName, mime string) (domain.BlobPutResult, error) {
	h := sha256.New()
	pr, pw := io.Pipe()
	mw := io.MultiWriter(h, pw)

	// копируем в пайп и считаем sha параллельно
	go func() {
		_, copyErr := io.Copy(mw, r)
		pw.CloseWithError(copyErr)
	}()

	tmpKey := "tmp/" + sanitize(hintName)
	info, err := s.cl.PutObject(ctx, s.bucket, tmpKey, pr, -1, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		return domain.BlobPutResult{}, err
	}

	sha := h.Sum(nil)
	finalKey := fmt.Sprintf("sha256/%x", sha)
	if finalKey != tmpKey {
		src := minio.CopySrcOptions{Bucket: s.bucket, Object: tmpKey}
		dst := minio.CopyDestOptions{Bucket: s.bucket, Object: finalKey}
		if _, err := s.cl.CopyObject(ctx, dst, src); err != nil {
			_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})
			return domain.BlobPutResult{}, err
		}
		_ = s.cl.RemoveObject(ctx, s.bucket, tmpKey, minio.RemoveObjectOptions{})
	}
	return domain.BlobPutResult{StorageKey: finalKey, Size: info.Size, SHA256: sha}, nil
}

// Get открывает поток для чтения.
// rangeHeader в формате "bytes=START-END" (опционально).
// Возвращает поток, длину отдаваемого тела (полного или диапазона),
// Content-Range (если был запрошен диапазон) и Content-Type.
func (s *Storage) Get(
	ctx context.Context,
	storageKey string,
	rangeHeader string,
) (rc io.ReadCloser, contentLen int64, contentRange, contentType string, err error) {

	// 1) HEAD: базовая мета (размер всего объекта, content-type)
	info, err := s.cl.StatObject(ctx, s.bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, "", "", err
	}
	totalSize := info.Size
	contentType = info.ContentType

	// 2) Парс диапазона (если есть)
	start, end, useRange := parseRange(rangeHeader, totalSize)

	opts := minio.GetObjectOptions{}
	if useRange {
		// NB: SetRange принимает включающие границы [start, end]
		if e := opts.SetRange(start, end); e != nil {
			return nil, 0, "", "", e
		}
		contentLen = end - start + 1
		contentRange = fmt.Sprintf("bytes %d-%d/%d", start, end, totalSize)
	} else {
		contentLen = totalSize
	}

	// 3) Получаем поток
	obj, err := s.cl.GetObject(ctx, s.bucket, storageKey, opts)
	if err != nil {
		return nil, 0, "", "", err
	}

	return obj, contentLen, contentRange, contentType, nil
}

func (s *Storage) Delete(ctx context.Context, storageKey string) error {
	return s.cl.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
}

func parseRange(rangeHeader string, totalSize int64) (start, end int64, ok bool) {
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(rangeHeader, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	switch {
	// bytes=A-B
	case parts[0] != "" && parts[1] != "":
		a, e1 := strconv.ParseInt(parts[0], 10, 64)
		b, e2 := strconv.ParseInt(parts[1], 10, 64)
		if e1 == nil && e2 == nil && a >= 0 && b >= a {
			return a, b, true
		}

	// bytes=A-  (от A до конца)
	case parts[0] != "":
		if a, e := strconv.ParseInt(parts[0], 10, 64); e == nil && a >= 0 {
			return a, totalSize - 1, true
		}

	// bytes=-N  (последние N байт)
	case parts[1] != "":
		if n, e := strconv.ParseInt(parts[1], 10, 64); e == nil && n > 0 {
			if n > totalSize {
				n = totalSize
			}
			return totalSize - n, totalSize - 1, true
		}
	}
	return 0, 0, false
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}

package domain

import (
	"context"
	"io"
)

// Хранилище бинарного контента (S3/MinIO)
type BlobPutResult struct {
	StorageKey string
	Size       int64
	SHA256     []byte
}

type BlobStorage interface {
	// Сохранение нового файла (возвращает ключ/размер/хэш)
	Put(ctx context.Context, r io.Reader, hintName, mime string) (BlobPutResult, error)
	// Получение контента для отдачи клиенту (stream); rangeHeader опционален
	Get(
		ctx context.Context,
		storageKey string,
		rangeHeader string,
	) (rc io.ReadCloser, contentLen int64, contentRange, contentType string, err error)
	Delete(ctx context.Context, storageKey string) error
	Ping(ctx context.Context) error
}

package minio

import (
	"context"
	"fmt"
	"io"

	mclient "github.com/minio/minio-go/v7"
)

// PutImage загружает объект целиком с заданным Content-Type.
func (s *ImagesStorage) PutImage(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	const op = "storage.minio.PutImage"

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		errResp := mclient.ToErrorResponse(err)
		return fmt.Errorf("%s: %s: %w", op, errResp.Code, err)
	}

	return nil
}

// URL возвращает публичную ссылку: public_base_url/key либо endpoint/bucket/key.
func (s *ImagesStorage) URL(key string) string {
	return s.baseURL + "/" + key
}

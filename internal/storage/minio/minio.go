// minio предоставляет реализацию storage.ImageStorage на базе MinIO/S3.
// minio.go: конструктор клиента: нормализует endpoint,
// настраивает Secure/creds и проверяет наличие целевого бакета.
// images.go: загрузка объектов и построение публичных ссылок.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/internal/storage"
)

// ImagesStorage: адаптер MinIO для изображений пользователей.
type ImagesStorage struct {
	client  *mclient.Client
	bucket  string
	baseURL string
}

// New создаёт и инициализирует клиент MinIO.
// Убирает схему из endpoint, подбирает Secure по схеме
// и выполняет fail-fast-проверку доступности бакета.
func New(ctx context.Context, cfg config.S3Config) (*ImagesStorage, error) {
	const op = "storage.minio.New"

	endpoint, secure := splitEndpoint(cfg.Endpoint)

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		// path-style ссылка прямо на MinIO.
		base = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}

	return &ImagesStorage{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

// splitEndpoint возвращает host[:port] без схемы и признак TLS.
func splitEndpoint(endpoint string) (string, bool) {
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}

	return endpoint, secure
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.ImageStorage = (*ImagesStorage)(nil)

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/pkg/log"
)

// Upload: один загружаемый файл. ContentType определяется транспортом по содержимому.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadImages проверяет все файлы и сохраняет их под images/<userID>/<uuid><ext>.
// Возвращает публичные ссылки в порядке входных файлов.
func (s *Service) UploadImages(ctx context.Context, user *models.User, files []Upload) ([]string, error) {
	const op = "service.images.UploadImages"

	if s.images == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrImagesDisabled)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no files: %w", op, ErrInvalidArgument)
	}

	if len(files) > s.imagesCfg.MaxCount {
		return nil, fmt.Errorf("%s: %d files, limit %d: %w", op, len(files), s.imagesCfg.MaxCount, ErrTooManyImages)
	}

	// Сначала проверяем всё, чтобы не загрузить часть набора.
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, fmt.Errorf("%s: %q is %q: %w", op, f.Filename, f.ContentType, ErrUnsupportedMediaType)
		}
		if f.Size <= 0 {
			return nil, fmt.Errorf("%s: %q is empty: %w", op, f.Filename, ErrInvalidArgument)
		}
		if f.Size > s.imagesCfg.MaxSizeBytes {
			return nil, fmt.Errorf("%s: %q: %w", op, f.Filename, ErrImageTooLarge)
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := imageKey(user.ID, f)

		if err := s.images.PutImage(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			log.From(ctx).Error("image_put_failed",
				slog.String("op", op),
				slog.Int64("user_id", user.ID),
				slog.String("key", key),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		urls = append(urls, s.images.URL(key))
	}

	log.From(ctx).Info("images_uploaded",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
		slog.Int("count", len(urls)),
	)

	return urls, nil
}

func imageKey(userID int64, f Upload) string {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(f.ContentType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	return fmt.Sprintf("images/%d/%s%s", userID, uuid.NewString(), ext)
}

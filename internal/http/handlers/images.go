package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	apierrors "github.com/pribylovaa/go-foody/internal/errors"
	"github.com/pribylovaa/go-foody/internal/service"
)

const (
	filesField = "files"
	// multipart-парсер держит в памяти не больше этого, остальное во временных файлах.
	multipartMemory = 8 << 20
	sniffLen        = 512
)

// Images: POST /images, multipart-поле files.
func (h *Handlers) Images(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.WriteError(w, r, fmt.Errorf("multipart body: %w", service.ErrImageTooLarge))
			return
		}
		apierrors.WriteError(w, r, fmt.Errorf("multipart body: %w", service.ErrInvalidArgument))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[filesField]

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			apierrors.WriteError(w, r, fmt.Errorf("open part: %w", err))
			return
		}
		defer f.Close()

		contentType, err := sniff(f)
		if err != nil {
			apierrors.WriteError(w, r, fmt.Errorf("sniff part: %w", err))
			return
		}

		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}

	urls, err := h.svc.UploadImages(r.Context(), user, uploads)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, urls)
}

// sniff определяет тип по первым байтам и перематывает файл в начало.
// Заявленному клиентом Content-Type не доверяем.
func sniff(f multipart.File) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return http.DetectContentType(buf[:n]), nil
}

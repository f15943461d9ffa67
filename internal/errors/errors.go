// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает доменную ошибку сервиса (сравнение через errors.Is),
// на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный код для фронта;
//   - безопасное message без утечки деталей.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pribylovaa/go-foody/internal/service"
	"github.com/pribylovaa/go-foody/internal/token"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError: единый формат для фронта.
// Code: короткий стабильный код для машиночитаемой обработки.
// Message: безопасное человекочитаемое описание.
// RequestID: прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target error
	status int
	code   string
	msg    string
}

// Порядок важен: виды ошибок токена проверяются раньше общего ErrInvalidToken.
var table = []mapping{
	{service.ErrEmailDuplicate, http.StatusConflict, "email_duplicate", "email already registered"},
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
	{service.ErrWrongPassword, http.StatusBadRequest, "wrong_password", "wrong password"},
	{service.ErrMissingAuthHeader, http.StatusUnauthorized, "missing_auth_header", "authorization header is missing or malformed"},
	{token.ErrExpired, http.StatusUnauthorized, "token_expired", "token expired"},
	{token.ErrMalformed, http.StatusUnauthorized, "token_malformed", "token malformed"},
	{token.ErrUnsupported, http.StatusUnauthorized, "token_unsupported", "token unsupported"},
	{token.ErrSignatureInvalid, http.StatusUnauthorized, "token_signature_invalid", "token signature invalid"},
	{token.ErrInvalid, http.StatusUnauthorized, "token_invalid", "token invalid"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "token_invalid", "token invalid"},
	{service.ErrWrongTokenType, http.StatusUnauthorized, "wrong_token_type", "wrong token type"},
	{service.ErrRefreshTokenInvalid, http.StatusUnauthorized, "refresh_token_invalid", "refresh token invalid"},
	{service.ErrTooManyImages, http.StatusBadRequest, "too_many_images", "too many images"},
	{service.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "unsupported_media_type", "only image files are accepted"},
	{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "image_too_large", "image too large"},
	{service.ErrImagesDisabled, http.StatusServiceUnavailable, "images_disabled", "image upload is not available"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil: программная ошибка вызова: 500/internal,
//     чтобы не послать "200 OK" с телом ошибки;
//   - известная доменная ошибка: статус и код из таблицы;
//   - прочее: 500/internal без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	for _, m := range table {
		if !stderrors.Is(err, m.target) {
			continue
		}

		msg := m.msg
		// Ошибки валидации безопасны и полезны фронту.
		var verrs validation.Errors
		if m.target == service.ErrInvalidArgument && stderrors.As(err, &verrs) {
			msg = verrs.Error()
		}

		return m.status, ErrorResponse{Error: APIError{Code: m.code, Message: msg}}
	}

	return internal()
}

// Code возвращает машиночитаемый код ошибки (для метрик и логов).
func Code(err error) string {
	_, resp := ToHTTP(err)
	return resp.Error.Code
}

// WriteError: хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

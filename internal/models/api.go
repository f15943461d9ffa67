// Входные/выходные модели REST API.
package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var passwordRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// CredentialsRequest: тело signup/signin.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate проверяет формат e-mail (6–50 символов) и пароль (8–20 латинских букв/цифр).
func (r CredentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.RuneLength(6, 50), is.Email),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 20),
			validation.Match(passwordRe).Error("must contain only latin letters and digits"),
		),
	)
}

// SignupResponse: идентификатор созданного пользователя.
type SignupResponse struct {
	ID int64 `json:"id"`
}

// LogoutResponse: идентификатор пользователя, завершившего сессию.
type LogoutResponse struct {
	ID int64 `json:"id"`
}

// EditProfileRequest: PATCH /auth/me.
type EditProfileRequest struct {
	Nickname string  `json:"nickname"`
	ImageURI *string `json:"imageUri"`
}

// Validate проверяет длину никнейма.
func (r EditProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Nickname, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.ImageURI, validation.NilOrNotEmpty, is.URL),
	)
}

// CategoriesRequest: PATCH /auth/category.
type CategoriesRequest struct {
	Red    string `json:"red"`
	Yellow string `json:"yellow"`
	Green  string `json:"green"`
	Blue   string `json:"blue"`
	Purple string `json:"purple"`
}

// Validate ограничивает каждую подпись 50 символами.
func (r CategoriesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Red, validation.RuneLength(0, 50)),
		validation.Field(&r.Yellow, validation.RuneLength(0, 50)),
		validation.Field(&r.Green, validation.RuneLength(0, 50)),
		validation.Field(&r.Blue, validation.RuneLength(0, 50)),
		validation.Field(&r.Purple, validation.RuneLength(0, 50)),
	)
}

// Categories переводит запрос в доменную модель.
func (r CategoriesRequest) Categories() Categories {
	return Categories(r)
}

// ProfileResponse: публичное представление пользователя.
type ProfileResponse struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	LoginType  string     `json:"loginType"`
	Nickname   string     `json:"nickname"`
	ImageURI   *string    `json:"imageUri"`
	Categories Categories `json:"categories"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewProfileResponse строит ответ из пользователя.
func NewProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:         u.ID,
		Email:      u.Email,
		LoginType:  u.LoginType,
		Nickname:   u.Nickname,
		ImageURI:   u.ImageURI,
		Categories: u.Categories,
		CreatedAt:  u.CreatedAt,
	}
}

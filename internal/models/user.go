package models

import "time"

// LoginTypeEmail: единственный поддерживаемый способ входа.
const LoginTypeEmail = "EMAIL"

// User представляет пользователя в системе.
//
// HashedRefreshToken хранит bcrypt-хэш отпечатка единственного действующего
// refresh-токена. nil означает, что активного refresh-токена нет
// (начальное состояние и состояние после logout).
type User struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	HashedRefreshToken *string    `json:"-"`
	RefreshExpiresAt   *time.Time `json:"-"`
	LoginType          string     `json:"login_type"`
	Nickname           string     `json:"nickname"`
	ImageURI           *string    `json:"image_uri,omitempty"`
	Categories         Categories `json:"categories"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Categories: пользовательские подписи к пяти цветам маркеров.
type Categories struct {
	Red    string `json:"red"`
	Yellow string `json:"yellow"`
	Green  string `json:"green"`
	Blue   string `json:"blue"`
	Purple string `json:"purple"`
}

// RefreshSlot: новое содержимое слота refresh-токена пользователя.
type RefreshSlot struct {
	Hash      string
	ExpiresAt time.Time
}

// HasRefreshToken сообщает, есть ли у пользователя действующий слот.
func (u *User) HasRefreshToken() bool {
	return u != nil && u.HashedRefreshToken != nil && *u.HashedRefreshToken != ""
}

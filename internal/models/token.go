package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownTokenType: значение claim'а type не входит в перечисление.
var ErrUnknownTokenType = errors.New("unknown token type")

// TokenType: назначение токена. Нулевое значение не является допустимым типом.
type TokenType int

const (
	tokenTypeUnknown TokenType = iota
	TokenAccess
	TokenRefresh
)

// String возвращает каноничное имя типа.
func (t TokenType) String() string {
	switch t {
	case TokenAccess:
		return "ACCESS"
	case TokenRefresh:
		return "REFRESH"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Valid сообщает, что значение входит в перечисление.
func (t TokenType) Valid() bool {
	return t == TokenAccess || t == TokenRefresh
}

// MarshalText реализует encoding.TextMarshaler.
func (t TokenType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTokenType, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler; незнакомые значения отклоняются.
func (t *TokenType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ACCESS":
		*t = TokenAccess
	case "REFRESH":
		*t = TokenRefresh
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenType, string(b))
	}

	return nil
}

// Claims: проверенное содержимое токена.
type Claims struct {
	ID        string
	Subject   string
	Type      TokenType
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair: access и refresh токены, выпущенные вместе.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

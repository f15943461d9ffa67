// hasher: одностороннее хэширование секретов (паролей и отпечатков refresh-токенов).
package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher хэширует секрет и проверяет секрет против хэша.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// Bcrypt реализует Hasher поверх bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt создаёт хэшер; cost вне допустимого диапазона заменяется на bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost}
}

// Hash возвращает bcrypt-хэш секрета. Секреты длиннее 72 байт отклоняются.
func (b *Bcrypt) Hash(secret string) (string, error) {
	const op = "hasher.Hash"

	h, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(h), nil
}

// Verify сравнивает секрет с хэшем за постоянное время.
func (b *Bcrypt) Verify(secret, hash string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

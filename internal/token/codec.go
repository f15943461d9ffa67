// token выпускает и проверяет подписанные JWT (HS256) с claim'ами sub и type.
//
// Codec неизменяем после создания и безопасен для конкурентного использования.
package token

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/internal/models"
)

// MinSecretLen: минимальная длина ключа подписи в байтах (256 бит для HS256).
const MinSecretLen = 32

var (
	// ErrExpired: срок действия токена истёк. Транспорт: HTTP 401.
	ErrExpired = errors.New("token expired")
	// ErrMalformed: токен не разбирается как JWT. Транспорт: HTTP 401.
	ErrMalformed = errors.New("token malformed")
	// ErrUnsupported: алгоритм отличен от HS256 либо claim type отсутствует
	// или неизвестен. Транспорт: HTTP 401.
	ErrUnsupported = errors.New("token unsupported")
	// ErrSignatureInvalid: подпись не сходится с ключом. Транспорт: HTTP 401.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrInvalid: прочие нарушения (issuer, audience, iat в будущем,
	// отсутствие exp/sub). Транспорт: HTTP 401.
	ErrInvalid = errors.New("token invalid")

	// ErrWeakSecret: ключ подписи короче MinSecretLen.
	ErrWeakSecret = errors.New("jwt secret is too short")
	// ErrBadTTL: время жизни токена не положительно.
	ErrBadTTL = errors.New("token ttl must be positive")
)

var errAlgorithm = errors.New("unexpected signing method")

type claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Codec кодирует и декодирует токены с фиксированным ключом и параметрами.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   []string
	now        func() time.Time
}

// NewCodec проверяет параметры и создаёт Codec.
func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	const op = "token.NewCodec"

	if len(cfg.JWTSecret) < MinSecretLen {
		return nil, fmt.Errorf("%s: %w (got %d bytes, need %d)", op, ErrWeakSecret, len(cfg.JWTSecret), MinSecretLen)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrBadTTL)
	}

	return &Codec{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.Issuer,
		audience:   append([]string(nil), cfg.Audience...),
		now:        time.Now,
	}, nil
}

// TTL возвращает сконфигурированное время жизни для типа токена.
func (c *Codec) TTL(typ models.TokenType) time.Duration {
	if typ == models.TokenRefresh {
		return c.refreshTTL
	}

	return c.accessTTL
}

// Issue: Encode со сконфигурированным TTL.
func (c *Codec) Issue(subject string, typ models.TokenType) (string, models.Claims, error) {
	return c.Encode(subject, typ, c.TTL(typ))
}

// Encode подписывает токен: iat = now, exp = now + ttl, jti = uuid.
// Возвращённые Claims совпадают с тем, что вернёт Decode для этого токена.
func (c *Codec) Encode(subject string, typ models.TokenType, ttl time.Duration) (string, models.Claims, error) {
	const op = "token.Encode"

	if subject == "" {
		return "", models.Claims{}, fmt.Errorf("%s: empty subject: %w", op, ErrInvalid)
	}
	if !typ.Valid() {
		return "", models.Claims{}, fmt.Errorf("%s: %w", op, models.ErrUnknownTokenType)
	}
	if ttl <= 0 {
		return "", models.Claims{}, fmt.Errorf("%s: %w", op, ErrBadTTL)
	}

	// NumericDate хранит секунды.
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl).Truncate(time.Second)
	jti := uuid.NewString()

	rc := claims{
		Type: typ.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings(c.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(c.secret)
	if err != nil {
		return "", models.Claims{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, models.Claims{
		ID:        jti,
		Subject:   subject,
		Type:      typ,
		Issuer:    c.issuer,
		Audience:  append([]string(nil), c.audience...),
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Decode проверяет подпись, срок, issuer и audience и возвращает Claims.
// Любая ошибка относится ровно к одному из видов ErrExpired, ErrMalformed,
// ErrUnsupported, ErrSignatureInvalid, ErrInvalid.
func (c *Codec) Decode(raw string) (models.Claims, error) {
	const op = "token.Decode"

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if len(c.audience) > 0 {
		opts = append(opts, jwt.WithAudience(c.audience...))
	}

	var rc claims
	tok, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errAlgorithm
		}

		return c.secret, nil
	}, opts...)
	if err != nil {
		return models.Claims{}, fmt.Errorf("%s: %w", op, classify(err))
	}

	if !tok.Valid {
		return models.Claims{}, fmt.Errorf("%s: %w", op, ErrInvalid)
	}

	if rc.Subject == "" {
		return models.Claims{}, fmt.Errorf("%s: missing sub: %w", op, ErrInvalid)
	}

	var typ models.TokenType
	if err := typ.UnmarshalText([]byte(rc.Type)); err != nil {
		return models.Claims{}, fmt.Errorf("%s: %w: %w", op, ErrUnsupported, err)
	}

	out := models.Claims{
		ID:       rc.ID,
		Subject:  rc.Subject,
		Type:     typ,
		Issuer:   rc.Issuer,
		Audience: []string(rc.Audience),
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time.UTC()
	}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time.UTC()
	}

	return out, nil
}

// classify сводит ошибки jwt к видам пакета.
func classify(err error) error {
	switch {
	case errors.Is(err, errAlgorithm):
		return ErrUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupported
	default:
		return ErrInvalid
	}
}

// Fingerprint: SHA-256 от сырого токена в base64url. Именно его видит хэшер:
// bcrypt принимает не более 72 байт, а JWT длиннее.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

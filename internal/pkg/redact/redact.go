// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Token: литерал вместо токена.
func Token() string { return "[REDACTED_TOKEN]" }

// Password: литерал вместо пароля.
func Password() string { return "[REDACTED_PASSWORD]" }

// AuthHeader показывает только схему заголовка Authorization.
func AuthHeader(h string) string {
	if h == "" {
		return ""
	}

	scheme, _, found := strings.Cut(h, " ")
	if !found {
		return Token()
	}

	return scheme + " " + Token()
}

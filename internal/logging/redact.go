package logging

import (
	"regexp"
	"strings"
)

// Field names whose values are never logged. Pairing codes are included
// because a captured code links the messaging account.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"credential",
	"cookie",
	"session",
	"qr",
	"pairing",
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._~+/=-]{8,})`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]+`),
	regexp.MustCompile(`data:[a-z]+/[a-z0-9.+-]+;base64,[a-zA-Z0-9+/=]+`),
	regexp.MustCompile(`(?i)(key|token|secret|password)[=:]["']?([a-zA-Z0-9+/=_-]{24,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces sensitive information in a string.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// RedactMap returns a copy of an upstream JSON object that is safe to log.
func RedactMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if IsSensitiveField(k) {
			result[k] = RedactedValue
			continue
		}
		switch typed := v.(type) {
		case map[string]any:
			result[k] = RedactMap(typed)
		case string:
			result[k] = Redact(typed)
		default:
			result[k] = v
		}
	}
	return result
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}

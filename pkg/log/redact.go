package log

import (
	"fmt"
	"strings"
)

// Redacted replaces the value of any field whose key looks secret.
const Redacted = "[REDACTED]"

var secretKeyParts = []string{"password", "passwd", "secret", "token", "authorization", "cookie", "credential"}

// IsSecretKey reports whether a field key names a secret.
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, part := range secretKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}

// sanitize prepares a field value for output: secrets are masked and
// errors are rendered as their message, since most error types marshal
// to an empty JSON object.
func sanitize(key string, value any) any {
	if IsSecretKey(key) {
		return Redacted
	}
	switch v := value.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return value
	}
}

// putFields copies alternating key/value pairs into dst, skipping
// non-string keys and a trailing key without value.
func putFields(dst map[string]any, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		dst[key] = sanitize(key, keysAndValues[i+1])
	}
}

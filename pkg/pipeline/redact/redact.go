package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// AWS access key ids (long-term AKIA and temporary ASIA).
	accessKeyIDRe = regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{16}\b`)

	// Common key=value formats that sometimes leak in error strings.
	secretKVRe = regexp.MustCompile(`(?i)\b(aws[_-]?secret[_-]?access[_-]?key|aws[_-]?session[_-]?token|api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Presigned URL credentials.
	amzQueryRe = regexp.MustCompile(`(?i)\b(X-Amz-Signature|X-Amz-Security-Token|X-Amz-Credential)=[^&\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = accessKeyIDRe.ReplaceAllString(out, "<redacted_key_id>")
	out = secretKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = amzQueryRe.ReplaceAllString(out, "$1=<redacted>")
	return strings.TrimSpace(out)
}

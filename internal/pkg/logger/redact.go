package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail masks the local part of an address:
// "john.doe@example.com" -> "jo***@example.com", "ab@example.com" -> "***@example.com".
// Anything that does not split into exactly one local part and one domain
// becomes "***@***".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") || strings.Contains(key, "address") {
		return RedactEmail(val)
	}
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}

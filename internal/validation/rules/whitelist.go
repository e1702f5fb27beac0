package rules

import (
	"strings"

	"github.com/ignite/list-cleaner/internal/pkg/logger"
)

// DefaultWhitelistDomains is used whenever the whitelist file yields nothing.
var DefaultWhitelistDomains = []string{
	"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "live.com", "icloud.com",
	"yandex.ru", "yandex.com", "ukr.net", "i.ua", "meta.ua", "proton.me", "protonmail.com", "zoho.com",
}

// Whitelist is a set of lower-case domains accepted by the local DNS stage.
type Whitelist map[string]struct{}

// NewWhitelist builds a set from domains, lower-casing and trimming each and
// dropping empties.
func NewWhitelist(domains []string) Whitelist {
	w := make(Whitelist, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			w[d] = struct{}{}
		}
	}
	return w
}

// DefaultWhitelist returns a fresh copy of the built-in domain set.
func DefaultWhitelist() Whitelist {
	return NewWhitelist(DefaultWhitelistDomains)
}

// Contains reports whether domain is whitelisted. The lookup is case-insensitive.
func (w Whitelist) Contains(domain string) bool {
	_, ok := w[strings.ToLower(domain)]
	return ok
}

// Len returns the number of domains.
func (w Whitelist) Len() int { return len(w) }

// LoadWhitelist reads a YAML sequence of domains, or a single string of
// whitespace-separated domains. Any failure, or an empty result, yields
// DefaultWhitelist.
func LoadWhitelist(path string) Whitelist {
	raw, err := readRaw(path)
	if err != nil {
		logger.Warn("whitelist fallback to defaults", "path", path, "error", err)
		return DefaultWhitelist()
	}

	var domains []string
	switch t := raw.(type) {
	case []interface{}:
		domains = stringList(t)
	case string:
		domains = strings.Fields(t)
	}

	w := NewWhitelist(domains)
	if w.Len() == 0 {
		logger.Warn("whitelist has no domains, using defaults", "path", path)
		return DefaultWhitelist()
	}
	return w
}

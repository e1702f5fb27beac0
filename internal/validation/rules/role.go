package rules

import (
	"regexp"
	"strings"

	"github.com/ignite/list-cleaner/internal/pkg/logger"
)

var (
	// DefaultRoleLocalParts is the fallback role dictionary.
	DefaultRoleLocalParts = []string{"admin", "info", "support", "sales", "help", "postmaster", "webmaster", "abuse", "security"}
	// DefaultRolePatterns is the fallback loose-pattern list.
	DefaultRolePatterns = []string{`\bnore?ply\b`}
	// DefaultShortTokens is the fallback prefix/suffix token list.
	DefaultShortTokens = []string{"it", "hr", "pr", "qa"}
	// DefaultDotInsensitiveDomains lists providers that ignore dots in local parts.
	DefaultDotInsensitiveDomains = []string{"gmail.com", "googlemail.com"}
)

var alnumToken = regexp.MustCompile(`^[a-z0-9]+$`)

// RoleSource is the raw, uncompiled form of a role rule bundle.
type RoleSource struct {
	LocalParts            []string
	Patterns              []string
	PhrasePatterns        []string
	ShortTokens           []string
	DotInsensitiveDomains []string
}

// RoleConfig is a compiled role rule bundle. Nil regexes mean the category
// has no usable entries and never matches.
type RoleConfig struct {
	localParts     map[string]struct{}
	shortTokens    map[string]struct{}
	dotInsensitive map[string]struct{}
	patterns       *regexp.Regexp
	phrases        *regexp.Regexp
	prefix         *regexp.Regexp
	suffix         *regexp.Regexp
}

// DefaultRoleSource returns the built-in bundle.
func DefaultRoleSource() RoleSource {
	return RoleSource{
		LocalParts:            append([]string(nil), DefaultRoleLocalParts...),
		Patterns:              append([]string(nil), DefaultRolePatterns...),
		ShortTokens:           append([]string(nil), DefaultShortTokens...),
		DotInsensitiveDomains: append([]string(nil), DefaultDotInsensitiveDomains...),
	}
}

// DefaultRoleConfig compiles the built-in bundle.
func DefaultRoleConfig() *RoleConfig {
	return CompileRoleConfig(DefaultRoleSource())
}

// CompileRoleConfig lower-cases the token lists and compiles the regex
// categories case-insensitively. Entries that fail to compile are skipped.
func CompileRoleConfig(src RoleSource) *RoleConfig {
	cfg := &RoleConfig{
		localParts:     lowerSet(src.LocalParts),
		shortTokens:    lowerSet(src.ShortTokens),
		dotInsensitive: lowerSet(src.DotInsensitiveDomains),
		patterns:       unionRegex("patterns", src.Patterns),
		phrases:        unionRegex("phrase_patterns", src.PhrasePatterns),
	}

	var alts []string
	seen := make(map[string]bool)
	for _, group := range [][]string{src.LocalParts, src.ShortTokens} {
		for _, tok := range group {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if alnumToken.MatchString(tok) && !seen[tok] {
				seen[tok] = true
				alts = append(alts, tok)
			}
		}
	}
	if len(alts) > 0 {
		joined := strings.Join(alts, "|")
		cfg.prefix = regexp.MustCompile(`(?i)\A(?:` + joined + `)(?:[^[:alnum:]]|\z)`)
		cfg.suffix = regexp.MustCompile(`(?i)(?:\A|[^[:alnum:]])(?:` + joined + `)\z`)
	}
	return cfg
}

// LoadRoleConfig reads a role bundle with keys local_parts, patterns,
// phrase_patterns, short_tokens and dot_insensitive_domains, honouring an
// env section when present. Failures yield DefaultRoleConfig.
func LoadRoleConfig(path, env string) *RoleConfig {
	doc, err := readSection(path, env)
	if err != nil {
		logger.Warn("role rules fallback to defaults", "path", path, "error", err)
		return DefaultRoleConfig()
	}
	return CompileRoleConfig(RoleSource{
		LocalParts:            stringList(doc["local_parts"]),
		Patterns:              stringList(doc["patterns"]),
		PhrasePatterns:        stringList(doc["phrase_patterns"]),
		ShortTokens:           stringList(doc["short_tokens"]),
		DotInsensitiveDomains: stringList(doc["dot_insensitive_domains"]),
	})
}

// IsRoleWord reports an exact dictionary hit.
func (c *RoleConfig) IsRoleWord(token string) bool {
	_, ok := c.localParts[token]
	return ok
}

// IsShortToken reports whether token is one of the configured short tokens.
func (c *RoleConfig) IsShortToken(token string) bool {
	_, ok := c.shortTokens[token]
	return ok
}

// DotInsensitive reports whether dots in local parts are insignificant for domain.
func (c *RoleConfig) DotInsensitive(domain string) bool {
	_, ok := c.dotInsensitive[domain]
	return ok
}

// MatchesPattern tests the loose-pattern union.
func (c *RoleConfig) MatchesPattern(s string) bool {
	return c.patterns != nil && c.patterns.MatchString(s)
}

// MatchesPhrase tests the phrase union.
func (c *RoleConfig) MatchesPhrase(s string) bool {
	return c.phrases != nil && c.phrases.MatchString(s)
}

// MatchesAffix tests the prefix and suffix regexes.
func (c *RoleConfig) MatchesAffix(s string) bool {
	if c.prefix != nil && c.prefix.MatchString(s) {
		return true
	}
	return c.suffix != nil && c.suffix.MatchString(s)
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

func unionRegex(category string, patterns []string) *regexp.Regexp {
	var valid []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			logger.Warn("skipping invalid role pattern", "category", category, "pattern", p, "error", err)
			continue
		}
		valid = append(valid, "(?:"+p+")")
	}
	if len(valid) == 0 {
		return nil
	}
	return regexp.MustCompile("(?i)" + strings.Join(valid, "|"))
}

package validation

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/ignite/list-cleaner/internal/validation/rules"
)

var (
	tokenSeparators = regexp.MustCompile(`[._+\-]+`)
	digitRuns       = regexp.MustCompile(`[0-9]+`)
)

// RoleStep rejects addresses that name a function rather than a person
// (info@, noreply@, it-support@ ...).
type RoleStep struct {
	cfg *rules.RoleConfig
}

func NewRoleStep(cfg *rules.RoleConfig) *RoleStep {
	return &RoleStep{cfg: cfg}
}

func (s *RoleStep) Name() string { return StageRole }

func (s *RoleStep) Run(ctx context.Context, in io.Reader, kept, rejected io.Writer) (StageResult, error) {
	return filterLines(ctx, in, kept, rejected, func(line string) (string, bool) {
		// Lines without both a local part and a domain are rejected here even
		// when the syntax stage is off.
		local, domain, ok := splitAddress(strings.TrimSpace(line))
		if !ok {
			return line, false
		}
		return line, !s.IsRole(strings.ToLower(local), strings.ToLower(domain))
	})
}

// IsRole classifies a lower-cased local part. Checks run narrowest first and
// stop at the first hit:
//
//  1. a token, or a token with digit runs removed, is a dictionary word
//  2. the local part or a token matches a loose pattern
//  3. the local part matches a phrase pattern
//  4. a dictionary word or short token is a prefix or suffix at a separator
//  5. on dot-insensitive domains, the undotted local part is a dictionary word
//
// Before any check the +tag is removed and, on dot-insensitive domains, so
// are the dots.
func (s *RoleStep) IsRole(local, domain string) bool {
	l := s.normalizeLocal(local, domain)
	if l == "" {
		return false
	}

	candidates := tokenCandidates(l)
	for _, c := range candidates {
		if s.cfg.IsRoleWord(c) {
			return true
		}
	}

	if s.cfg.MatchesPattern(l) {
		return true
	}
	for _, c := range candidates {
		if s.cfg.MatchesPattern(c) {
			return true
		}
	}

	if s.cfg.MatchesPhrase(l) {
		return true
	}

	if s.cfg.MatchesAffix(l) {
		return true
	}

	if s.cfg.DotInsensitive(domain) {
		return s.cfg.IsRoleWord(strings.ReplaceAll(l, ".", ""))
	}
	return false
}

func (s *RoleStep) normalizeLocal(local, domain string) string {
	l, _, _ := strings.Cut(local, "+")
	if s.cfg.DotInsensitive(domain) {
		l = strings.ReplaceAll(l, ".", "")
	}
	return l
}

// tokenCandidates splits l on separators and adds digit-stripped variants
// and l itself: "4004shop.rom" -> [4004shop rom shop 4004shop.rom].
func tokenCandidates(l string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	base := tokenSeparators.Split(l, -1)
	for _, t := range base {
		add(t)
	}
	for _, t := range base {
		add(digitRuns.ReplaceAllString(t, ""))
	}
	add(l)
	return out
}

package validation

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/ignite/list-cleaner/internal/validation/rules"
)

var domainShape = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)+$`)

// DNSLocalStep keeps addresses whose domain is on the whitelist.
type DNSLocalStep struct {
	whitelist rules.Whitelist
}

func NewDNSLocalStep(w rules.Whitelist) *DNSLocalStep {
	return &DNSLocalStep{whitelist: w}
}

func (s *DNSLocalStep) Name() string { return StageDNSLocal }

func (s *DNSLocalStep) Run(ctx context.Context, in io.Reader, kept, rejected io.Writer) (StageResult, error) {
	return filterLines(ctx, in, kept, rejected, func(line string) (string, bool) {
		return line, s.Allowed(line)
	})
}

// Allowed reports whether the domain after the first '@' is well formed and
// whitelisted.
func (s *DNSLocalStep) Allowed(addr string) bool {
	domain := domainOf(addr)
	return domain != "" && domainShape.MatchString(domain) && s.whitelist.Contains(domain)
}

// domainOf returns the lower-cased, trimmed text after the first '@', or "".
func domainOf(addr string) string {
	_, domain, found := strings.Cut(addr, "@")
	if !found {
		return ""
	}
	return strings.TrimSpace(strings.ToLower(domain))
}

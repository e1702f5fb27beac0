package validation

import (
	"context"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ignite/list-cleaner/internal/validation/rules"
)

var (
	localCharset  = regexp.MustCompile(`^[a-z0-9._+\-]+$`)
	domainCharset = regexp.MustCompile(`^[a-z0-9.\-]+$`)
	labelCharset  = regexp.MustCompile(`^[a-z0-9\-]+$`)
)

const (
	lettersAsc  = "abcdefghijklmnopqrstuvwxyz"
	lettersDesc = "zyxwvutsrqponmlkjihgfedcba"
	digitsAsc   = "0123456789"
	digitsDesc  = "9876543210"
)

// SyntaxStep rejects addresses that are malformed or look machine-generated.
// Kept addresses are written lower-cased.
type SyntaxStep struct {
	cfg rules.SyntaxConfig
}

// NewSyntaxStep creates the stage with the given thresholds.
func NewSyntaxStep(cfg rules.SyntaxConfig) *SyntaxStep {
	return &SyntaxStep{cfg: cfg}
}

func (s *SyntaxStep) Name() string { return StageSyntax }

func (s *SyntaxStep) Run(ctx context.Context, in io.Reader, kept, rejected io.Writer) (StageResult, error) {
	return filterLines(ctx, in, kept, rejected, func(line string) (string, bool) {
		addr := strings.ToLower(line)
		return addr, s.Valid(addr)
	})
}

// Valid reports whether addr passes every syntax and quality check. addr is
// lower-cased before checking.
func (s *SyntaxStep) Valid(addr string) bool {
	addr = strings.ToLower(addr)
	if strings.Count(addr, "@") != 1 || strings.IndexFunc(addr, unicode.IsSpace) >= 0 {
		return false
	}
	local, domain, ok := splitAddress(addr)
	if !ok {
		return false
	}
	if utf8.RuneCountInString(addr) > s.cfg.MaxEmailLen {
		return false
	}
	if !validLocal(local) || !validDomain(domain) {
		return false
	}
	if len(local) < s.cfg.MinLocalLen || len(local) > s.cfg.MaxLocalLen {
		return false
	}
	if allDigits(local) {
		return false
	}
	if longestRun(local) >= s.cfg.SameRunLimit() {
		return false
	}
	if s.repeatedUnit(local) {
		return false
	}
	return !s.hasSequence(local)
}

func validLocal(local string) bool {
	if !localCharset.MatchString(local) {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	return !strings.Contains(local, "..")
}

func validDomain(domain string) bool {
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	if strings.Contains(domain, "..") || !strings.Contains(domain, ".") {
		return false
	}
	if !domainCharset.MatchString(domain) {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		if !labelCharset.MatchString(label) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// longestRun returns the length of the longest run of one repeated byte.
func longestRun(s string) int {
	if s == "" {
		return 0
	}
	longest, cur := 1, 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			cur++
			if cur > longest {
				longest = cur
			}
		} else {
			cur = 1
		}
	}
	return longest
}

// repeatedUnit reports whether s is one unit repeated end to end, e.g. "abcabc".
func (s *SyntaxStep) repeatedUnit(local string) bool {
	n := len(local)
	if n < s.cfg.MinRepeatTotalLen {
		return false
	}
	minUnit := s.cfg.MinRepeatUnitLen
	if minUnit < 1 {
		minUnit = 1
	}
	for size := minUnit; size <= n/2; size++ {
		if n%size != 0 {
			continue
		}
		if strings.Repeat(local[:size], n/size) == local {
			return true
		}
	}
	return false
}

func (s *SyntaxStep) hasSequence(local string) bool {
	letters := keepBytes(local, 'a', 'z')
	digits := keepBytes(local, '0', '9')

	if sequenceRun(letters, s.cfg.MinSeqLenLetters, lettersAsc) || sequenceRun(letters, s.cfg.MinSeqLenLetters, lettersDesc) {
		return true
	}
	if sequenceRun(digits, s.cfg.MinSeqLenDigits, digitsAsc) || sequenceRun(digits, s.cfg.MinSeqLenDigits, digitsDesc) {
		return true
	}
	for _, w := range s.cfg.SequenceWords {
		w = strings.ToLower(w)
		if len(w) >= 3 && strings.Contains(local, w) {
			return true
		}
	}
	return false
}

func keepBytes(s string, lo, hi byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= lo && s[i] <= hi {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// sequenceRun reports whether s holds minLen or more consecutive characters
// that are adjacent in alphabet. minLen <= 1 disables the check.
func sequenceRun(s string, minLen int, alphabet string) bool {
	if minLen <= 1 || len(s) < minLen {
		return false
	}
	longest, cur := 1, 1
	for i := 1; i < len(s); i++ {
		prev := strings.IndexByte(alphabet, s[i-1])
		next := strings.IndexByte(alphabet, s[i])
		if prev >= 0 && next == prev+1 {
			cur++
			if cur > longest {
				longest = cur
			}
		} else {
			cur = 1
		}
	}
	return longest >= minLen
}

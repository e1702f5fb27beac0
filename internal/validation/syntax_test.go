package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/list-cleaner/internal/validation/rules"
)

func TestSyntaxStep_Valid(t *testing.T) {
	step := NewSyntaxStep(rules.DefaultSyntaxConfig())

	tests := []struct {
		addr string
		want bool
	}{
		{"john.smith@example.com", true},
		{"John.Smith@Example.COM", true},
		{"maria-lopez+news@mail.co.uk", true},
		{"maria_lopez@example.com", true},
		{"maria!lopez@example.com", false},
		{"a..b@example.com", false},
		{"12345@example.com", false},
		{"98017240@example.com", false},
		{"qwerty99@example.com", false},
		{"abababab@example.com", false},
		{"mypassword1@example.com", false},
		{"bad email@example.com", false},
		{"two@@example.com", false},
		{"john@smith@example.com", false},
		{"@example.com", false},
		{"john.smith@", false},
		{".johnny@example.com", false},
		{"johnny.@example.com", false},
		{"jo$hnny@example.com", false},
		{"johnny@example", false},
		{"johnny@.example.com", false},
		{"johnny@example..com", false},
		{"johnny@-example.com", false},
		{"johnny@example-.com", false},
		{"johnny@exa_mple.com", false},
		{"johnny@" + strings.Repeat("a", 64) + ".com", false},
		{"johnny@" + strings.Repeat("a", 63) + ".com", true},
		{"jo@example.com", false},
		{strings.Repeat("x", 30) + "y" + strings.Repeat("z", 34) + "@example.com", false},
		{"maaaax@example.com", false},
		{"maaax@example.com", true},
		{"lmnopq@example.com", false},
		{"fedora@example.com", false},
		{"ivan987@example.com", false},
		{"ivan13579@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, step.Valid(tt.addr))
		})
	}
}

func TestSyntaxStep_MaxEmailLen(t *testing.T) {
	cfg := rules.DefaultSyntaxConfig()
	cfg.MaxEmailLen = 19
	step := NewSyntaxStep(cfg)

	assert.True(t, step.Valid("jordan@example.com"))
	assert.False(t, step.Valid("jordanna@example.com"))
}

func TestSyntaxStep_SequenceChecksDisabled(t *testing.T) {
	cfg := rules.DefaultSyntaxConfig()
	cfg.MinSeqLenLetters = 1
	cfg.MinSeqLenDigits = 0
	cfg.SequenceWords = []string{"ab", "zz"}
	step := NewSyntaxStep(cfg)

	assert.True(t, step.Valid("lmnopq@example.com"))
	assert.True(t, step.Valid("ivan987@example.com"))
	assert.True(t, step.Valid("abbey@example.com"), "words shorter than 3 are ignored")
}

func TestSyntaxStep_RunLowercasesKept(t *testing.T) {
	step := NewSyntaxStep(rules.DefaultSyntaxConfig())

	res, kept, rejected := runStageOn(t, step, "Maria.Lopez@Example.com", "Bad Email@x.com", "maria.lopez@example.com")

	assert.Equal(t, StageResult{In: 3, Kept: 2, Removed: 1}, res)
	assert.Equal(t, []string{"maria.lopez@example.com", "maria.lopez@example.com"}, kept)
	assert.Equal(t, []string{"Bad Email@x.com"}, rejected)
}

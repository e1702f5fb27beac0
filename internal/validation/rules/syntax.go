package rules

import (
	"fmt"
	"strings"

	"github.com/ignite/list-cleaner/internal/pkg/logger"
)

// DefaultSequenceWords is the fallback list of disallowed keyboard/sequence words.
var DefaultSequenceWords = []string{"qwerty", "asdf", "zxc", "qwertyuiop", "password", "admin", "abc", "123", "12345"}

// SyntaxConfig holds the thresholds for the syntax stage.
type SyntaxConfig struct {
	MinLocalLen        int
	MaxLocalLen        int
	MaxEmailLen        int
	MaxConsecutiveSame int
	MinRepeatTotalLen  int
	MinRepeatUnitLen   int
	MinSeqLenLetters   int
	MinSeqLenDigits    int
	SequenceWords      []string
}

// DefaultSyntaxConfig returns the built-in thresholds.
func DefaultSyntaxConfig() SyntaxConfig {
	return SyntaxConfig{
		MinLocalLen:        5,
		MaxLocalLen:        64,
		MaxEmailLen:        254,
		MaxConsecutiveSame: 4,
		MinRepeatTotalLen:  6,
		MinRepeatUnitLen:   2,
		MinSeqLenLetters:   3,
		MinSeqLenDigits:    3,
		SequenceWords:      append([]string(nil), DefaultSequenceWords...),
	}
}

// SameRunLimit is MaxConsecutiveSame clamped to [2,10].
func (c SyntaxConfig) SameRunLimit() int {
	switch {
	case c.MaxConsecutiveSame < 2:
		return 2
	case c.MaxConsecutiveSame > 10:
		return 10
	default:
		return c.MaxConsecutiveSame
	}
}

// LoadSyntaxConfig reads the thresholds, honouring an env section when
// present. Keys that are absent or not numeric keep their defaults.
func LoadSyntaxConfig(path, env string) SyntaxConfig {
	cfg := DefaultSyntaxConfig()
	doc, err := readSection(path, env)
	if err != nil {
		logger.Warn("syntax rules fallback to defaults", "path", path, "error", err)
		return cfg
	}

	ints := map[string]*int{
		"min_local_len":        &cfg.MinLocalLen,
		"max_local_len":        &cfg.MaxLocalLen,
		"max_email_len":        &cfg.MaxEmailLen,
		"max_consecutive_same": &cfg.MaxConsecutiveSame,
		"min_repeat_total_len": &cfg.MinRepeatTotalLen,
		"min_repeat_unit_len":  &cfg.MinRepeatUnitLen,
		"min_seq_len_letters":  &cfg.MinSeqLenLetters,
		"min_seq_len_digits":   &cfg.MinSeqLenDigits,
	}
	for key, dst := range ints {
		v, present := doc[key]
		if !present {
			continue
		}
		n, ok := intValue(v)
		if !ok {
			logger.Warn("ignoring non-numeric syntax threshold", "key", key, "value", fmt.Sprint(v))
			continue
		}
		*dst = n
	}

	if v, present := doc["sequence_words"]; present {
		words := stringList(v)
		cfg.SequenceWords = make([]string, 0, len(words))
		for _, w := range words {
			cfg.SequenceWords = append(cfg.SequenceWords, strings.ToLower(w))
		}
	}
	return cfg
}

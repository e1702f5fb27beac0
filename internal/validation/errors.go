package validation

import "errors"

var (
	// ErrNoInput is returned when the original list cannot be opened.
	ErrNoInput = errors.New("no original file")
	// ErrNoStages is returned when every stage flag is false.
	ErrNoStages = errors.New("at least one validation step must be enabled")
	// ErrPartition is returned when a stage's kept and removed counts do not
	// add up to its input count.
	ErrPartition = errors.New("stage output does not partition its input")
)

var errNotSeekable = errors.New("dns_online: input must be seekable")

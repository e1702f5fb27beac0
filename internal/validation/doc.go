// Package validation cleans an address list by running it through an ordered
// chain of filter stages.
//
// Order of stages is fixed:
//
//	normalize -> syntax -> dns_local -> role -> duplicates -> dns_online
//
// Every stage partitions its input: each line lands in exactly one of the kept
// or rejected outputs, except the duplicate stage whose rejected output is a
// report of values seen more than once. Intermediate streams live in a
// per-run workspace on disk that is removed when Run returns; only the final
// processed list and each enabled stage's report are handed to the
// ArtifactStore.
package validation

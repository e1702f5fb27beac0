// Package rules loads the human-editable rule files that parametrize the
// cleaning pipeline: the local domain whitelist, the role-address bundle and
// the syntax thresholds.
//
// Loaders never fail. A missing, empty or unparseable file yields the built-in
// defaults and a WARN log line. Loaded values are read-only; a RuleSet is
// replaced wholesale on reload, never mutated in place.
package rules

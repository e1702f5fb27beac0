package rules

import (
	"sync"
	"sync/atomic"
)

// Paths locates the three rule files. Env selects a per-environment section
// inside the role and syntax files.
type Paths struct {
	Whitelist string
	Role      string
	Syntax    string
	Env       string
}

// RuleSet bundles one consistent snapshot of every rule file.
type RuleSet struct {
	Whitelist Whitelist
	Role      *RoleConfig
	Syntax    SyntaxConfig
}

// Defaults returns a RuleSet built only from built-in values.
func Defaults() *RuleSet {
	return &RuleSet{
		Whitelist: DefaultWhitelist(),
		Role:      DefaultRoleConfig(),
		Syntax:    DefaultSyntaxConfig(),
	}
}

// Load reads every rule file. It never fails.
func Load(p Paths) *RuleSet {
	return &RuleSet{
		Whitelist: LoadWhitelist(p.Whitelist),
		Role:      LoadRoleConfig(p.Role, p.Env),
		Syntax:    LoadSyntaxConfig(p.Syntax, p.Env),
	}
}

// Loader is a process-wide cache of the rule files. The first Get loads them;
// Reload swaps in a complete new snapshot. Snapshots are never mutated, so
// concurrent pipelines may share one.
type Loader struct {
	paths   Paths
	mu      sync.Mutex
	current atomic.Pointer[RuleSet]
}

// NewLoader creates a loader for paths without reading anything yet.
func NewLoader(p Paths) *Loader {
	return &Loader{paths: p}
}

// Get returns the cached snapshot, loading it on first use.
func (l *Loader) Get() *RuleSet {
	if rs := l.current.Load(); rs != nil {
		return rs
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if rs := l.current.Load(); rs != nil {
		return rs
	}
	rs := Load(l.paths)
	l.current.Store(rs)
	return rs
}

// Reload re-reads every rule file and replaces the cached snapshot.
func (l *Loader) Reload() *RuleSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	rs := Load(l.paths)
	l.current.Store(rs)
	return rs
}

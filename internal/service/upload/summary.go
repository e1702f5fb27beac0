package upload

import (
	"context"

	"github.com/ignite/list-cleaner/internal/domain"
	"github.com/ignite/list-cleaner/internal/preview"
	"github.com/ignite/list-cleaner/internal/storage"
	"github.com/ignite/list-cleaner/internal/validation"
)

// Summary scopes.
const (
	ScopeValid      = "valid"
	ScopeDuplicates = "duplicates"
	ScopeDNS        = "dns"
	ScopeRole       = "role"
	ScopeSyntax     = "syntax"
	ScopeInvalid    = "invalid"
)

// Counts are line counts over the stored artifacts.
type Counts struct {
	TotalIn    int64 `json:"total_in"`
	Valid      int64 `json:"valid"`
	Duplicates int64 `json:"duplicates"`
	DNSLocal   int64 `json:"dns_local"`
	DNSOnline  int64 `json:"dns_online"`
	DNS        int64 `json:"dns"`
	Role       int64 `json:"role"`
	Syntax     int64 `json:"syntax"`
	Invalid    int64 `json:"invalid"`
}

// Summary is the result view of one upload.
type Summary struct {
	Upload    *domain.Upload  `json:"upload"`
	Processed bool            `json:"processed"`
	Scope     string          `json:"scope"`
	Counts    Counts          `json:"counts"`
	Preview   preview.Preview `json:"preview"`
}

// reportKinds lists every report in stage order.
var reportKinds = []string{
	validation.ArtifactSyntaxRejected,
	validation.ArtifactDNSLocalRejected,
	validation.ArtifactRoleRejected,
	validation.ArtifactDuplicates,
	validation.ArtifactDNSOnlineRejected,
}

// Summary counts the upload's artifacts and previews the ones scope selects.
// An empty scope means "valid".
func (s *Service) Summary(ctx context.Context, id, scope string) (*Summary, error) {
	if scope == "" {
		scope = ScopeValid
	}
	switch scope {
	case ScopeValid, ScopeDuplicates, ScopeDNS, ScopeRole, ScopeSyntax, ScopeInvalid:
	default:
		return nil, ErrInvalidScope
	}

	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &artifactView{
		store:   storage.Prefixed(s.store, id),
		upload:  u,
		missing: preview.NotFound(storage.ErrNotFound),
	}

	sum := &Summary{Upload: u, Scope: scope}
	c := &sum.Counts
	if c.TotalIn, err = preview.CountOf(ctx, v.store, u.Filename, v.missing); err != nil {
		return nil, err
	}
	processed := v.name(validation.ArtifactProcessed)
	sum.Processed = u.HasArtifact(processed)
	counts := []struct {
		kind string
		dst  *int64
	}{
		{validation.ArtifactProcessed, &c.Valid},
		{validation.ArtifactDuplicates, &c.Duplicates},
		{validation.ArtifactDNSLocalRejected, &c.DNSLocal},
		{validation.ArtifactDNSOnlineRejected, &c.DNSOnline},
		{validation.ArtifactRoleRejected, &c.Role},
		{validation.ArtifactSyntaxRejected, &c.Syntax},
	}
	for _, e := range counts {
		if *e.dst, err = v.count(ctx, e.kind); err != nil {
			return nil, err
		}
	}
	c.DNS = c.DNSLocal + c.DNSOnline
	c.Invalid = max(c.TotalIn-c.Valid, 0)

	limit := s.cfg.PreviewLimit
	switch scope {
	case ScopeValid:
		name := u.Filename
		if sum.Processed {
			name = processed
		}
		sum.Preview, err = preview.HeadOf(ctx, v.store, name, limit, v.missing)
	case ScopeDuplicates:
		sum.Preview, err = v.head(ctx, validation.ArtifactDuplicates, limit)
	case ScopeRole:
		sum.Preview, err = v.head(ctx, validation.ArtifactRoleRejected, limit)
	case ScopeSyntax:
		sum.Preview, err = v.head(ctx, validation.ArtifactSyntaxRejected, limit)
	case ScopeDNS:
		sum.Preview, err = v.union(ctx, []string{validation.ArtifactDNSLocalRejected, validation.ArtifactDNSOnlineRejected}, limit)
		sum.Preview.Total = c.DNS
	case ScopeInvalid:
		sum.Preview, err = v.union(ctx, reportKinds, limit)
		sum.Preview.Total = c.Invalid
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// artifactView reads only the artifacts the upload's last run recorded.
type artifactView struct {
	store   storage.Store
	upload  *domain.Upload
	missing func(error) bool
}

func (v *artifactView) name(kind string) string {
	return validation.ArtifactName(kind, v.upload.Filename)
}

func (v *artifactView) count(ctx context.Context, kind string) (int64, error) {
	name := v.name(kind)
	if !v.upload.HasArtifact(name) {
		return 0, nil
	}
	return preview.CountOf(ctx, v.store, name, v.missing)
}

func (v *artifactView) head(ctx context.Context, kind string, limit int) (preview.Preview, error) {
	name := v.name(kind)
	if !v.upload.HasArtifact(name) {
		return preview.Preview{Lines: []string{}}, nil
	}
	return preview.HeadOf(ctx, v.store, name, limit, v.missing)
}

func (v *artifactView) union(ctx context.Context, kinds []string, limit int) (preview.Preview, error) {
	var names []string
	for _, k := range kinds {
		if name := v.name(k); v.upload.HasArtifact(name) {
			names = append(names, name)
		}
	}
	return preview.DistinctUnion(ctx, v.store, names, limit, v.missing)
}

package validation

import (
	"context"
	"io"
)

// ContentType is the MIME type of every artifact.
const ContentType = "text/plain"

// Artifact kinds. The stored name is "<kind>_<original file name>".
const (
	ArtifactProcessed         = "processed"
	ArtifactSyntaxRejected    = "syntax_rejected"
	ArtifactDNSLocalRejected  = "dns_local_rejected"
	ArtifactRoleRejected      = "role_based_rejected"
	ArtifactDuplicates        = "duplicates"
	ArtifactDNSOnlineRejected = "dns_online_rejected"
)

// ArtifactStore is the storage collaborator: open the original, write new
// named artifacts. Implementations live in internal/storage.
type ArtifactStore interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Put(ctx context.Context, name string, r io.Reader, contentType string) error
}

// ArtifactName builds the stored name for kind.
func ArtifactName(kind, original string) string {
	return kind + "_" + original
}

// ReportKind maps a stage to the kind of its report artifact.
func ReportKind(stage string) string {
	switch stage {
	case StageSyntax:
		return ArtifactSyntaxRejected
	case StageDNSLocal:
		return ArtifactDNSLocalRejected
	case StageRole:
		return ArtifactRoleRejected
	case StageDuplicates:
		return ArtifactDuplicates
	case StageDNSOnline:
		return ArtifactDNSOnlineRejected
	default:
		return stage + "_rejected"
	}
}

// Artifact is one stored output of a run.
type Artifact struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Lines int64  `json:"lines"`
}

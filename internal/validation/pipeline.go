package validation

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/validation/rules"
)

// Options selects the stages to run. At least one must be true.
type Options struct {
	Syntax           bool `json:"syntax"`
	DNSLocal         bool `json:"dns_local"`
	RoleBased        bool `json:"role_based"`
	RemoveDuplicates bool `json:"remove_duplicates"`
	DNSOnline        bool `json:"dns_online"`
}

// Any reports whether any stage is enabled.
func (o Options) Any() bool {
	return o.Syntax || o.DNSLocal || o.RoleBased || o.RemoveDuplicates || o.DNSOnline
}

// Config wires a Pipeline.
type Config struct {
	Rules          *rules.RuleSet // nil uses rules.Defaults()
	Resolver       MXResolver     // nil uses net.DefaultResolver
	DNS            DNSOnlineOptions
	SortChunkBytes int64
	TempDir        string // parent of each run's workspace; "" means os.TempDir
}

// Pipeline runs the stage chain over one list per Run call. It holds no
// per-run state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	cfg Config
}

// Result is what a run produced. Metrics is populated as far as the run got,
// even when Run returns an error.
type Result struct {
	Metrics   *Metrics   `json:"metrics"`
	Artifacts []Artifact `json:"artifacts"`
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Rules == nil {
		cfg.Rules = rules.Defaults()
	}
	return &Pipeline{cfg: cfg}
}

// stages builds the enabled stages in their fixed order. Sort runs spill into
// workDir.
func (p *Pipeline) stages(opts Options, workDir string) []Stage {
	var stages []Stage
	if opts.Syntax {
		stages = append(stages, NewSyntaxStep(p.cfg.Rules.Syntax))
	}
	if opts.DNSLocal {
		stages = append(stages, NewDNSLocalStep(p.cfg.Rules.Whitelist))
	}
	if opts.RoleBased {
		stages = append(stages, NewRoleStep(p.cfg.Rules.Role))
	}
	if opts.RemoveDuplicates {
		stages = append(stages, NewDedupStep(p.cfg.SortChunkBytes, workDir))
	}
	if opts.DNSOnline {
		stages = append(stages, NewDNSOnlineStep(p.cfg.Resolver, p.cfg.DNS))
	}
	return stages
}

type report struct {
	kind  string
	path  string
	lines int64
}

// Run cleans the artifact named original from store and writes the processed
// list and one report per enabled stage back to it. obs may be nil.
func (p *Pipeline) Run(ctx context.Context, store ArtifactStore, original string, opts Options, obs Observer) (*Result, error) {
	result := &Result{Metrics: NewMetrics()}
	if !opts.Any() {
		return result, ErrNoStages
	}
	if obs == nil {
		obs = nopObserver{}
	}

	src, err := store.Open(ctx, original)
	if err != nil {
		return result, fmt.Errorf("%w: %s: %w", ErrNoInput, original, err)
	}
	defer src.Close()

	ws, err := os.MkdirTemp(p.cfg.TempDir, "listclean-*")
	if err != nil {
		return result, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(ws)

	start := time.Now()
	metrics := result.Metrics

	current := filepath.Join(ws, "normalized.txt")
	var norm NormalizeResult
	err = writeFile(current, func(w io.Writer) error {
		var nerr error
		norm, nerr = Normalize(ctx, src, w)
		return nerr
	})
	metrics.Set(MetricTotalIn, norm.TotalIn)
	if err != nil {
		return result, err
	}
	metrics.Set(MetricAfterNormalize, norm.AfterNormalize)
	count := norm.AfterNormalize

	var reports []report
	for _, stage := range p.stages(opts, ws) {
		name := stage.Name()
		obs.StageStarted(ctx, name)

		keptPath := filepath.Join(ws, name+"_kept.txt")
		rejectedPath := filepath.Join(ws, name+"_rejected.txt")
		res, rejectedLines, err := runStage(ctx, stage, current, keptPath, rejectedPath)
		if err != nil {
			logger.Error("validation stage failed", "stage", name, "error", err)
			return result, fmt.Errorf("%s: %w", name, err)
		}
		if res.In != count {
			return result, fmt.Errorf("%s: read %d lines, expected %d: %w", name, res.In, count, ErrPartition)
		}
		if err := res.check(name); err != nil {
			return result, err
		}

		metrics.Set(RemovedKey(name), res.Removed)
		reports = append(reports, report{kind: ReportKind(name), path: rejectedPath, lines: rejectedLines})
		obs.StageFinished(ctx, name, res)
		logger.Info("validation stage done", "stage", name, "in", res.In, "kept", res.Kept, "removed", res.Removed)

		current = keptPath
		count = res.Kept
	}
	metrics.Set(MetricTotalOut, count)

	for _, r := range reports {
		if err := putFile(ctx, store, ArtifactName(r.kind, original), r.path); err != nil {
			return result, err
		}
		result.Artifacts = append(result.Artifacts, Artifact{Kind: r.kind, Name: ArtifactName(r.kind, original), Lines: r.lines})
	}
	processed := ArtifactName(ArtifactProcessed, original)
	if err := putFile(ctx, store, processed, current); err != nil {
		return result, err
	}
	result.Artifacts = append(result.Artifacts, Artifact{Kind: ArtifactProcessed, Name: processed, Lines: count})

	logger.Info("validation finished", "file", original, "total_in", norm.TotalIn, "total_out", count, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// runStage feeds the file at inPath through stage and returns the stage
// counts plus the number of lines written to the rejected file.
func runStage(ctx context.Context, stage Stage, inPath, keptPath, rejectedPath string) (StageResult, int64, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return StageResult{}, 0, err
	}
	defer in.Close()

	var (
		res      StageResult
		rejected lineCounter
	)
	err = writeFile(keptPath, func(kept io.Writer) error {
		return writeFile(rejectedPath, func(rej io.Writer) error {
			rejected.w = rej
			var rerr error
			res, rerr = stage.Run(ctx, in, kept, &rejected)
			return rerr
		})
	})
	return res, rejected.lines, err
}

// writeFile creates path and hands fill a buffered writer over it.
func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(f, 256*1024)
	if err := fill(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func putFile(ctx context.Context, store ArtifactStore, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := store.Put(ctx, name, f, ContentType); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

type lineCounter struct {
	w     io.Writer
	lines int64
}

func (c *lineCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.lines += int64(bytes.Count(p[:n], []byte{'\n'}))
	return n, err
}

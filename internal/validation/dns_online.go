package validation

import (
	"context"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ignite/list-cleaner/internal/extsort"
	"github.com/ignite/list-cleaner/internal/pkg/logger"
)

// DefaultDNSTimeout bounds one MX lookup.
const DefaultDNSTimeout = 2 * time.Second

// MXResolver is the part of *net.Resolver the online stage needs.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DNSOnlineOptions tunes live lookups.
type DNSOnlineOptions struct {
	Timeout       time.Duration // per lookup; DefaultDNSTimeout when zero
	Concurrency   int           // parallel lookups; 1 when zero
	QueriesPerSec float64       // 0 means unlimited
}

func (o DNSOnlineOptions) withDefaults() DNSOnlineOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultDNSTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// DNSOnlineStep keeps addresses whose domain publishes at least one MX
// record. Lookups fail closed: errors and timeouts count as "no MX".
//
// The input is read twice. The first pass collects distinct domains and
// resolves each exactly once into a cache owned by this run; the second pass
// classifies. The input must therefore be an io.Seeker.
type DNSOnlineStep struct {
	resolver MXResolver
	opts     DNSOnlineOptions
}

// NewDNSOnlineStep creates the stage. A nil resolver uses net.DefaultResolver.
func NewDNSOnlineStep(resolver MXResolver, opts DNSOnlineOptions) *DNSOnlineStep {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSOnlineStep{resolver: resolver, opts: opts.withDefaults()}
}

func (s *DNSOnlineStep) Name() string { return StageDNSOnline }

func (s *DNSOnlineStep) Run(ctx context.Context, in io.Reader, kept, rejected io.Writer) (StageResult, error) {
	seeker, ok := in.(io.ReadSeeker)
	if !ok {
		return StageResult{}, errNotSeekable
	}

	domains, err := collectDomains(ctx, seeker)
	if err != nil {
		return StageResult{}, err
	}
	hasMX, err := s.resolveAll(ctx, domains)
	if err != nil {
		return StageResult{}, err
	}

	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return StageResult{}, err
	}
	return filterLines(ctx, seeker, kept, rejected, func(line string) (string, bool) {
		return line, hasMX[domainOf(line)]
	})
}

func collectDomains(ctx context.Context, in io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var domains []string
	sc := extsort.NewScanner(in)
	for sc.Scan() {
		d := domainOf(sc.Text())
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return domains, ctx.Err()
}

// resolveAll looks every domain up once. Each goroutine writes only its own
// slot, so the results slice needs no lock. A failed lookup means "no MX",
// but a cancelled ctx fails the whole stage.
func (s *DNSOnlineStep) resolveAll(ctx context.Context, domains []string) (map[string]bool, error) {
	var limiter *rate.Limiter
	if s.opts.QueriesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.QueriesPerSec), 1)
	}

	results := make([]bool, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, d := range domains {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return ctx.Err()
				}
			}
			results[i] = s.lookup(gctx, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cache := make(map[string]bool, len(domains))
	for i, d := range domains {
		cache[d] = results[i]
	}
	return cache, nil
}

func (s *DNSOnlineStep) lookup(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	records, err := s.resolver.LookupMX(ctx, domain)
	if err != nil {
		logger.Debug("mx lookup failed", "domain", domain, "error", err)
		return false
	}
	return len(records) > 0
}

// Command listclean runs the cleaning pipeline over a local list and prints
// the metrics as JSON.
//
//	listclean -in list.txt -out ./cleaned -syntax -role -dedup
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ignite/list-cleaner/internal/config"
	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/progress"
	"github.com/ignite/list-cleaner/internal/storage"
	"github.com/ignite/list-cleaner/internal/validation"
	"github.com/ignite/list-cleaner/internal/validation/rules"
)

type options struct {
	in, out, configPath string
	stages              validation.Options
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("listclean", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.in, "in", "", "input list, one address per line (required)")
	fs.StringVar(&o.out, "out", "", "output directory (default: next to the input)")
	fs.StringVar(&o.configPath, "config", "", "optional YAML config file")
	fs.BoolVar(&o.stages.Syntax, "syntax", false, "reject malformed addresses")
	fs.BoolVar(&o.stages.DNSLocal, "dns-local", false, "keep only whitelisted domains")
	fs.BoolVar(&o.stages.RoleBased, "role", false, "reject role addresses")
	fs.BoolVar(&o.stages.RemoveDuplicates, "dedup", false, "remove duplicates")
	fs.BoolVar(&o.stages.DNSOnline, "dns-online", false, "reject domains without MX records")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.in == "" {
		return nil, fmt.Errorf("-in is required")
	}
	if !o.stages.Any() {
		return nil, validation.ErrNoStages
	}
	if o.out == "" {
		o.out = filepath.Dir(o.in)
	}
	return o, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromEnv(path)
}

// run copies the input into the output directory and cleans it there.
func run(ctx context.Context, o *options, stdout io.Writer) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	store, err := storage.NewLocalStore(o.out)
	if err != nil {
		return err
	}
	name := filepath.Base(o.in)
	inDir, _ := filepath.Abs(filepath.Dir(o.in))
	outDir, _ := filepath.Abs(o.out)
	if inDir != outDir {
		f, err := os.Open(o.in)
		if err != nil {
			return err
		}
		err = store.Put(ctx, name, f, validation.ContentType)
		f.Close()
		if err != nil {
			return err
		}
	}

	vc := cfg.Validation
	p := validation.New(validation.Config{
		Rules: rules.Load(rules.Paths{
			Whitelist: vc.WhitelistPath(),
			Role:      vc.RolePath(),
			Syntax:    vc.SyntaxPath(),
			Env:       vc.Environment,
		}),
		DNS: validation.DNSOnlineOptions{
			Timeout:       vc.DNSTimeout(),
			Concurrency:   vc.DNSConcurrency,
			QueriesPerSec: vc.DNSQueriesPerSecond,
		},
		SortChunkBytes: vc.SortChunkBytes,
		TempDir:        vc.TempDir,
	})
	res, runErr := p.Run(ctx, store, name, o.stages, progress.Nop)
	if res != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return runErr
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Printf("listclean: %v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		log.Fatalf("listclean: %v", err)
	}
}

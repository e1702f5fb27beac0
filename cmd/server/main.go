package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/list-cleaner/internal/api"
	"github.com/ignite/list-cleaner/internal/config"
	"github.com/ignite/list-cleaner/internal/pkg/distlock"
	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/progress"
	"github.com/ignite/list-cleaner/internal/repository/postgres"
	"github.com/ignite/list-cleaner/internal/repository/sqlite"
	"github.com/ignite/list-cleaner/internal/service/upload"
	"github.com/ignite/list-cleaner/internal/storage"
	"github.com/ignite/list-cleaner/internal/validation"
	"github.com/ignite/list-cleaner/internal/validation/rules"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// migrateUp runs on its own connection because closing the migrator closes
// the database handle it was given.
func migrateUp(dsn, dir string) error {
	mdb, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := postgres.NewMigrator(mdb, dir)
	if err != nil {
		mdb.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	migrationsDir := flag.String("migrate", "", "apply migrations from this directory before serving")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	var (
		db      *sql.DB
		lockDB  *sql.DB
		uploads upload.Repository
	)
	if path, ok := strings.CutPrefix(cfg.Database.URL, "sqlite://"); ok {
		db, err = sqlite.Open(ctx, path)
		if err != nil {
			log.Fatalf("Failed to open sqlite database %s: %v", path, err)
		}
		defer db.Close()
		uploads = sqlite.NewUploadRepo(db)
		log.Printf("Using sqlite database at %s (single instance only)", path)
	} else {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(30 * time.Second)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			log.Fatalf("Failed to connect to database %s: %v", extractHost(cfg.Database.URL), err)
		}
		pingCancel()
		log.Printf("Connected to database at %s", extractHost(cfg.Database.URL))

		if *migrationsDir != "" {
			if err := migrateUp(cfg.Database.URL, *migrationsDir); err != nil {
				log.Fatalf("Migrations failed: %v", err)
			}
			log.Printf("Migrations applied from %s", *migrationsDir)
		}
		lockDB = db
		uploads = postgres.NewUploadRepo(db)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v - falling back to database locks, progress disabled", err)
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Redis connected (distributed locking and progress enabled)")
		}
		pingCancel()
	} else {
		log.Println("Redis not configured (REDIS_URL not set) - using database locks, progress disabled")
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Artifact storage: %s", cfg.Storage.Type)

	vc := cfg.Validation
	ruleLoader := rules.NewLoader(rules.Paths{
		Whitelist: vc.WhitelistPath(),
		Role:      vc.RolePath(),
		Syntax:    vc.SyntaxPath(),
		Env:       vc.Environment,
	})
	rs := ruleLoader.Get()
	log.Printf("Validation rules loaded from %s (env=%s, %d whitelisted domains)", vc.RulesDir, vc.Environment, rs.Whitelist.Len())

	svc := upload.NewService(
		uploads,
		store,
		distlock.NewLocker(redisClient, lockDB, cfg.Redis.LockTTL()),
		progress.NewTracker(redisClient, cfg.Redis.ProgressTTL()),
		upload.Config{
			Pipeline: validation.Config{
				DNS: validation.DNSOnlineOptions{
					Timeout:       vc.DNSTimeout(),
					Concurrency:   vc.DNSConcurrency,
					QueriesPerSec: vc.DNSQueriesPerSecond,
				},
				SortChunkBytes: vc.SortChunkBytes,
				TempDir:        vc.TempDir,
			},
			Rules:        ruleLoader,
			PreviewLimit: vc.PreviewLimit,
		},
	)

	checks := map[string]api.HealthCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	handlers := api.NewHandlers(svc, cfg.Server.MaxUploadBytes(), checks)
	router := api.SetupRoutes(handlers, cfg.Server.AllowedOrigins)

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP reloads the rule files without a restart.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			rs := ruleLoader.Reload()
			log.Printf("Validation rules reloaded (%d whitelisted domains)", rs.Whitelist.Len())
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

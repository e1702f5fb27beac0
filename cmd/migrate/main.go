// Command migrate manages the database schema.
//
//	migrate [-dir migrations] up|down|version|force N|list
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/ignite/list-cleaner/internal/config"
	"github.com/ignite/list-cleaner/internal/repository/postgres"
)

type command struct {
	dir     string
	action  string
	version int
}

func parseArgs(args []string) (*command, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	c := &command{}
	fs.StringVar(&c.dir, "dir", "migrations", "migrations directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	c.action = "up"
	if len(rest) > 0 {
		c.action = rest[0]
	}
	switch c.action {
	case "up", "down", "version", "list":
	case "force":
		if len(rest) < 2 {
			return nil, fmt.Errorf("force needs a version")
		}
		v, err := strconv.Atoi(rest[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version %q", rest[1])
		}
		c.version = v
	default:
		return nil, fmt.Errorf("unknown command %q", c.action)
	}
	return c, nil
}

func main() {
	c, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		cfg = config.Default()
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if c.action == "list" {
		defer db.Close()
		if err := listTables(db); err != nil {
			log.Fatal(err)
		}
		return
	}

	m, err := postgres.NewMigrator(db, c.dir)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch c.action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		err = m.Force(c.version)
	}
	if err != nil {
		log.Fatal(err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Schema at version %d (dirty=%v)", version, dirty)
}

func listTables(db *sql.DB) error {
	rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname='public' AND tablename LIKE 'validation_%' ORDER BY tablename")
	if err != nil {
		return err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		fmt.Println(" ", t)
		n++
	}
	fmt.Printf("Total: %d tables\n", n)
	return rows.Err()
}

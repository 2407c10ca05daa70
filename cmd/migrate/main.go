package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"orgdesk.io/internal/migrate"
	"orgdesk.io/internal/obs"
	"orgdesk.io/ops/migrations"
)

func main() {
	logger := obs.Logger()
	var (
		dsn            = flag.String("dsn", os.Getenv("ORGDESK_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "", "Directory of SQL migrations (defaults to the embedded set)")
		seedsPath      = flag.String("seeds", "", "Directory of SQL seeds (defaults to the embedded set)")
		timeout        = flag.Duration("timeout", 30*time.Second, "Overall timeout")
	)
	flag.Parse()

	if *dsn == "" {
		logger.Fatal("missing DSN: provide via -dsn or ORGDESK_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		logger.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		logger.WithError(err).Fatal("open db")
	}
	defer db.Close()

	mgr := migrate.NewManager(db, source(*migrationsPath, migrations.SQL()), source(*seedsPath, migrations.Seeds()),
		migrate.WithLogger(logger))

	switch flag.Arg(0) {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		if err == nil && len(applied) == 0 {
			logger.Info("schema up to date")
		}
	case "down":
		_, err = mgr.Down(ctx)
	case "seed":
		_, err = mgr.Seed(ctx)
	case "status":
		var history []migrate.Migration
		history, err = mgr.Status(ctx)
		for _, item := range history {
			if item.Applied {
				fmt.Printf("%s\tapplied %s\n", item.Name, item.AppliedAt.Format(time.RFC3339))
			} else {
				fmt.Printf("%s\tpending\n", item.Name)
			}
		}
	default:
		logger.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		logger.WithError(err).Fatalf("migrate %s", flag.Arg(0))
	}
}

func source(dir string, embedded fs.FS) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}

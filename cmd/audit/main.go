package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/centsible/centsible-backend/internal/config"
	"github.com/centsible/centsible-backend/internal/ledger/postgres"
	"github.com/centsible/centsible-backend/internal/service"
)

// Exit codes: 0 all balances check out, 1 discrepancies found, 2 the audit
// itself could not run.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.LedgerBackend != config.BackendPostgres {
		log.Fatal().Str("backend", cfg.LedgerBackend).Msg("Audit requires the postgres backend")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	auditor := service.NewAuditService(postgres.New(pool), cfg.AuditTolerance)

	report, err := auditor.AuditAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Audit run failed")
		os.Exit(2)
	}

	path := filepath.Join(cfg.AuditReportDir,
		"audit_"+report.GeneratedAt.Format("20060102T150405Z")+".json")
	if err := writeReport(path, report); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to write report")
		os.Exit(2)
	}

	failed := 0
	for _, user := range report.Users {
		if !user.Passed {
			failed++
		}
	}

	event := log.Info()
	if !report.Passed {
		event = log.Error()
	}
	event.
		Int("users_checked", report.UsersChecked).
		Int("categories_checked", report.CategoriesChecked).
		Int("users_failed", failed).
		Str("report", path).
		Msg("Audit complete")

	if !report.Passed {
		os.Exit(1)
	}
}

func writeReport(path string, report *service.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

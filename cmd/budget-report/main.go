package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"go-schoolfeeding/internal/config"
	"go-schoolfeeding/internal/report"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/internal/service"
	"go-schoolfeeding/pkg/database"
	applog "go-schoolfeeding/pkg/logger"
)

// budget-report writes the current allocation of one fiscal year to an xlsx
// workbook, e.g. budget-report -fy 2025/2026 -out ./reports
func main() {
	fiscalYear := flag.String("fy", "", "fiscal year to export (required)")
	outDir := flag.String("out", ".", "directory for the workbook")
	flag.Parse()

	cfg := config.Load()
	log := applog.New(cfg.LogLevel)
	if *fiscalYear == "" {
		flag.Usage()
		os.Exit(2)
	}

	db := database.ConnectDB(cfg.DBLogLevel)
	budgets := service.NewBudgetService(db, repository.NewBudgetRepo(db), repository.NewSchoolRepo(db), nil, 0, nil)
	ctx := context.Background()

	gov, err := budgets.GetAllocationByFiscalYear(ctx, *fiscalYear)
	if errors.Is(err, service.ErrNotFound) {
		log.WithField("fiscal_year", *fiscalYear).Fatal("no budget for fiscal year")
	}
	if err != nil {
		log.WithError(err).Fatal("loading allocation")
	}

	path := filepath.Join(*outDir, report.FileName(gov))
	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).Fatal("creating workbook")
	}
	if err := report.WriteBudgetAllocation(f, gov); err != nil {
		f.Close()
		log.WithError(err).Fatal("writing workbook")
	}
	if err := f.Close(); err != nil {
		log.WithError(err).Fatal("closing workbook")
	}
	log.WithField("path", path).Infof("allocation v%d exported", gov.Version)
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"washdesk/internal/config"
	"washdesk/internal/db"
	"washdesk/internal/importer"
	custstore "washdesk/internal/repository/customer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if len(os.Args) < 2 {
		logger.Fatal("usage: importer <export.csv>")
	}
	file, err := os.Open(os.Args[1])
	if err != nil {
		logger.Fatalf("open export: %v", err)
	}
	defer file.Close()

	ctx := context.Background()

	var store custstore.Store
	switch cfg.StoreKind {
	case "sheet":
		sheet, err := custstore.NewSheet(cfg.SheetPath, logger)
		if err != nil {
			logger.Fatalf("open sheet store: %v", err)
		}
		defer sheet.Close()
		store = sheet
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		store = custstore.NewPostgres(pool, logger)
	}

	imp := importer.NewCSVImporter(file, store, logger)
	imported, skipped, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d records: %v", imported, err)
	}
	logger.Printf("import complete: %d imported, %d skipped", imported, skipped)
}

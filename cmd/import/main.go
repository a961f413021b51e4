package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lit-review/config"
	"lit-review/services"
)

func main() {
	dir := flag.String("dir", ".", "search directory containing .bib files")
	source := flag.String("source", "", "search source name (default: source.txt in the directory)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := services.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", cfg.DBPath, err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	services.SeedDefaults(db, logger)

	// Source name: flag beats source.txt beats the directory name.
	name := strings.TrimSpace(*source)
	if name == "" {
		if data, err := os.ReadFile(filepath.Join(*dir, "source.txt")); err == nil {
			name = strings.TrimSpace(string(data))
		}
	}
	if name == "" {
		name = filepath.Base(*dir)
	}

	// Optional markdown description of the search query.
	details := ""
	if data, err := os.ReadFile(filepath.Join(*dir, "search.md")); err == nil {
		details = string(data)
	}

	importer := services.NewImportService(db, logger)

	existing, err := importer.FindSearchBySource(name)
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}
	if existing != nil {
		log.Printf("Search %q already exists with ID %d", name, existing.ID)
		log.Fatal("Refusing to reimport into an existing search.")
	}

	search, err := importer.CreateSearch(name, details)
	if err != nil {
		log.Fatalf("Failed to create search: %v", err)
	}
	log.Printf("Created search %q with ID %d", name, search.ID)

	stats, err := importer.ImportDirectory(*dir, search.ID)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Println("\n--- Import Statistics ---")
	fmt.Printf("Files processed: %d\n", stats.FilesProcessed)
	fmt.Printf("Entries added: %d\n", stats.EntriesAdded)
	fmt.Printf("Duplicates skipped: %d\n", stats.DuplicatesSkipped)
	fmt.Println("By type:")
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		if stats.ByType[t] > 0 {
			fmt.Printf("  %s: %d\n", t, stats.ByType[t])
		}
	}
}

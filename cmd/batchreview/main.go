package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"lit-review/config"
	"lit-review/providers/ollama"
	"lit-review/services"
)

// batchreview fetches and caches LLM suggestions for every eligible,
// still-undecided document of one search, sequentially.
func main() {
	searchID := flag.Uint("search", 0, "search id to process (required)")
	passNumber := flag.Int("pass", 1, "screening pass (1 or 2)")
	limit := flag.Int("limit", 0, "stop after this many suggestions (0 = no limit)")
	dryRun := flag.Bool("dry-run", false, "list the documents that would be processed and exit")
	flag.Parse()

	if *searchID == 0 {
		log.Fatal("-search is required")
	}
	if *passNumber != 1 && *passNumber != 2 {
		log.Fatalf("invalid pass %d", *passNumber)
	}

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

	opts, err := services.LoadLLMOptions(db, cfg)
	if err != nil {
		log.Fatalf("Failed to load LLM options: %v", err)
	}

	screening := services.NewScreeningService(db, logger)
	client := ollama.NewClient(opts.Host, opts.Timeout, logger)
	assistant := services.NewAssistantService(db, client, opts, logger)

	docs, err := screening.EligibleForPass(*searchID, *passNumber)
	if err != nil {
		log.Fatalf("Failed to list eligible documents: %v", err)
	}

	processed := 0
	skipped := 0
	failed := 0
	start := time.Now()

	for i := range docs {
		doc := &docs[i]
		if *limit > 0 && processed >= *limit {
			break
		}

		review, err := screening.GetPassReview(doc.ID, *passNumber)
		if err != nil {
			log.Fatalf("Failed to load pass review for document %d: %v", doc.ID, err)
		}
		// Decided documents and ones with a cached suggestion are skipped.
		if review != nil && (review.Decision != nil || review.Suggestion != nil) {
			skipped++
			continue
		}

		if *dryRun {
			log.Printf("Would process document %d: %s", doc.ID, doc.Title)
			processed++
			continue
		}

		sug, err := assistant.Suggest(context.Background(), doc, *passNumber)
		if err != nil {
			log.Fatalf("Suggestion failed for document %d: %v", doc.ID, err)
		}
		if sug.Failed() {
			failed++
			log.Printf("Document %d: %s", doc.ID, sug.Error)
		} else {
			log.Printf("Document %d: %s (%.2f)", doc.ID, sug.Decision, sug.Confidence)
		}

		if err := screening.StoreSuggestion(doc.ID, *passNumber, sug); err != nil {
			log.Fatalf("Failed to cache suggestion for document %d: %v", doc.ID, err)
		}
		processed++
	}

	log.Printf("Done: %d processed (%d failed), %d skipped, %d eligible, took %s",
		processed, failed, skipped, len(docs), time.Since(start).Round(time.Second))
}

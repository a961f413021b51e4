package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SuggestionDispatcher runs at most one background suggestion fetch at a
// time, last request wins: a new request cancels the in-flight one, and a
// superseded result is dropped instead of cached. This backs auto-suggest,
// where the reviewer may skip ahead faster than the model answers.
type SuggestionDispatcher struct {
	Screening *ScreeningService
	Assistant *AssistantService
	Logger    *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSuggestionDispatcher creates a new SuggestionDispatcher.
func NewSuggestionDispatcher(screening *ScreeningService, assistant *AssistantService, logger *zap.Logger) *SuggestionDispatcher {
	return &SuggestionDispatcher{Screening: screening, Assistant: assistant, Logger: logger}
}

// Request asks for a suggestion for (documentID, passNumber) in the
// background, cancelling any fetch still in flight. The returned channel
// closes when this request finishes, whether its result was cached or
// dropped.
func (d *SuggestionDispatcher) Request(documentID uint, passNumber int) <-chan struct{} {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		d.run(ctx, gen, documentID, passNumber)
	}()
	return done
}

// RequestIfUnsuggested backs auto-suggest on reviewer navigation: it fires a
// background fetch when auto-suggest is enabled and the document has neither
// a decision nor a cached suggestion for the pass. Returns nil when nothing
// was requested.
func (d *SuggestionDispatcher) RequestIfUnsuggested(documentID uint, passNumber int) <-chan struct{} {
	if !d.Assistant.Opts.AutoSuggest {
		return nil
	}
	existing, err := d.Screening.GetPassReview(documentID, passNumber)
	if err != nil {
		d.Logger.Warn("Auto-suggest lookup failed",
			zap.Uint("document_id", documentID), zap.Error(err))
		return nil
	}
	if existing != nil && (existing.Decision != nil || existing.Suggestion != nil) {
		return nil
	}
	return d.Request(documentID, passNumber)
}

func (d *SuggestionDispatcher) run(ctx context.Context, gen uint64, documentID uint, passNumber int) {
	log := d.Logger.With(
		zap.Uint("document_id", documentID),
		zap.Int("pass_number", passNumber))

	detail, err := d.Screening.GetDocument(documentID)
	if err != nil {
		log.Warn("Suggestion dispatch failed to load document", zap.Error(err))
		return
	}

	sug, err := d.Assistant.Suggest(ctx, &detail.DocumentWithMeta, passNumber)
	if err != nil {
		log.Warn("Suggestion dispatch failed", zap.Error(err))
		return
	}

	// Check and store under the same lock so a newer request that finished
	// first cannot have its result overwritten by this one.
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		log.Debug("Dropping superseded suggestion")
		return
	}

	if err := d.Screening.StoreSuggestion(documentID, passNumber, sug); err != nil {
		log.Warn("Failed to cache suggestion", zap.Error(err))
	}
}

// Stop cancels any in-flight fetch.
func (d *SuggestionDispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

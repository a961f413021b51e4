package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lit-review/models"
	"lit-review/providers"
)

// gatedChat signals when a call starts and blocks until released or
// cancelled.
type gatedChat struct {
	started  chan struct{}
	release  chan struct{}
	response string
}

func (g *gatedChat) Chat(ctx context.Context, model string, messages []providers.ChatMessage) (string, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return g.response, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedChat) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestDispatcherLastRequestWins(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db, zap.NewNop())
	chat := &gatedChat{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		response: `{"decision": "include", "confidence": 0.8, "reasoning": "fits"}`,
	}
	assistant := NewAssistantService(db, chat, testOpts(), zap.NewNop())
	dispatcher := NewSuggestionDispatcher(screening, assistant, zap.NewNop())

	search := seedSearch(t, db, "ACM")
	first := seedDocument(t, db, search.ID, "a", "")
	second := seedDocument(t, db, search.ID, "b", "")

	done1 := dispatcher.Request(first.ID, 1)
	<-chat.started // first fetch is in flight

	// The second request cancels the first.
	done2 := dispatcher.Request(second.ID, 1)
	<-chat.started
	close(chat.release)

	select {
	case <-done1:
	case <-time.After(5 * time.Second):
		t.Fatal("first request did not finish")
	}
	select {
	case <-done2:
	case <-time.After(5 * time.Second):
		t.Fatal("second request did not finish")
	}

	// The superseded result was dropped; only the latest is cached.
	stale, err := screening.GetPassReview(first.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, stale)

	fresh, err := screening.GetPassReview(second.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	require.NotNil(t, fresh.Suggestion)
	assert.Equal(t, models.DecisionInclude, fresh.Suggestion.Decision)
}

// sequencedChat hands each call its own release channel and response, in
// call order, and deliberately ignores cancellation: it models a slow fetch
// that outlives its request.
type sequencedChat struct {
	mu        sync.Mutex
	calls     int
	started   chan int
	release   []chan struct{}
	responses []string
}

func (s *sequencedChat) Chat(ctx context.Context, model string, messages []providers.ChatMessage) (string, error) {
	s.mu.Lock()
	n := s.calls
	s.calls++
	s.mu.Unlock()
	s.started <- n
	<-s.release[n]
	return s.responses[n], nil
}

func (s *sequencedChat) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestDispatcherStaleResultNeverOverwritesFresh(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db, zap.NewNop())
	chat := &sequencedChat{
		started: make(chan int),
		release: []chan struct{}{make(chan struct{}), make(chan struct{})},
		responses: []string{
			`{"decision": "exclude", "confidence": 0.9, "reasoning": "stale"}`,
			`{"decision": "include", "confidence": 0.8, "reasoning": "fresh"}`,
		},
	}
	assistant := NewAssistantService(db, chat, testOpts(), zap.NewNop())
	dispatcher := NewSuggestionDispatcher(screening, assistant, zap.NewNop())

	search := seedSearch(t, db, "ACM")
	doc := seedDocument(t, db, search.ID, "a", "")

	// Two requests for the same document; the first fetch keeps running past
	// its cancellation.
	done1 := dispatcher.Request(doc.ID, 1)
	<-chat.started
	done2 := dispatcher.Request(doc.ID, 1)
	<-chat.started

	// The newer fetch finishes and caches first.
	close(chat.release[1])
	select {
	case <-done2:
	case <-time.After(5 * time.Second):
		t.Fatal("second request did not finish")
	}

	// The stale fetch straggles in afterwards and must be dropped.
	close(chat.release[0])
	select {
	case <-done1:
	case <-time.After(5 * time.Second):
		t.Fatal("first request did not finish")
	}

	cached, err := screening.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.Suggestion)
	assert.Equal(t, models.DecisionInclude, cached.Suggestion.Decision)
	assert.Equal(t, "fresh", cached.Suggestion.Reasoning)
}

func TestDispatcherAutoSuggest(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db, zap.NewNop())
	chat := &fakeChat{response: `{"decision": "include", "confidence": 0.7, "reasoning": "fits"}`}
	opts := testOpts()
	opts.AutoSuggest = true
	assistant := NewAssistantService(db, chat, opts, zap.NewNop())
	dispatcher := NewSuggestionDispatcher(screening, assistant, zap.NewNop())

	search := seedSearch(t, db, "ACM")
	doc := seedDocument(t, db, search.ID, "a", "")

	done := dispatcher.RequestIfUnsuggested(doc.ID, 1)
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("auto-suggest request did not finish")
	}

	cached, err := screening.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.Suggestion)

	// A cached suggestion stops repeat fetches.
	assert.Nil(t, dispatcher.RequestIfUnsuggested(doc.ID, 1))

	// A recorded decision does too.
	other := seedDocument(t, db, search.ID, "b", "")
	decision := models.DecisionExclude
	_, err = screening.SavePassReview(other.ID, 1, &decision, "", []string{"EX2"})
	require.NoError(t, err)
	assert.Nil(t, dispatcher.RequestIfUnsuggested(other.ID, 1))
}

func TestDispatcherAutoSuggestDisabled(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db, zap.NewNop())
	chat := &fakeChat{response: `{"decision": "include", "confidence": 0.7, "reasoning": "fits"}`}
	assistant := NewAssistantService(db, chat, testOpts(), zap.NewNop())
	dispatcher := NewSuggestionDispatcher(screening, assistant, zap.NewNop())

	search := seedSearch(t, db, "ACM")
	doc := seedDocument(t, db, search.ID, "a", "")

	assert.Nil(t, dispatcher.RequestIfUnsuggested(doc.ID, 1))

	cached, err := screening.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestDispatcherCachesResult(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db, zap.NewNop())
	chat := &fakeChat{response: `{"decision": "uncertain", "confidence": 0.4, "reasoning": "thin metadata"}`}
	assistant := NewAssistantService(db, chat, testOpts(), zap.NewNop())
	dispatcher := NewSuggestionDispatcher(screening, assistant, zap.NewNop())

	search := seedSearch(t, db, "ACM")
	doc := seedDocument(t, db, search.ID, "a", "")

	select {
	case <-dispatcher.Request(doc.ID, 1):
	case <-time.After(5 * time.Second):
		t.Fatal("request did not finish")
	}

	cached, err := screening.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.Suggestion)
	assert.Equal(t, models.DecisionUncertain, cached.Suggestion.Decision)
	assert.Nil(t, cached.Decision)
}

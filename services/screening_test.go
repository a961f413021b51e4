package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lit-review/models"
)

func seedSearch(t *testing.T, db *gorm.DB, source string) models.Search {
	t.Helper()
	search := models.Search{Source: source}
	require.NoError(t, db.Create(&search).Error)
	return search
}

func seedDocument(t *testing.T, db *gorm.DB, searchID uint, key, doi string) models.Document {
	t.Helper()
	doc := models.Document{
		BibtexKey: key,
		EntryType: models.EntryTypeArticle,
		Title:     "Paper " + key,
		DOI:       doi,
		SearchID:  searchID,
	}
	require.NoError(t, db.Create(&doc).Error)
	require.NoError(t, db.Create(&models.Article{
		DocumentID: doc.ID,
		Year:       "2023",
		Journal:    "Test Journal",
		Abstract:   "An abstract for " + key,
		Keywords:   "sensing",
	}).Error)
	require.NoError(t, db.Create(&models.Review{DocumentID: doc.ID}).Error)
	return doc
}

func linkDuplicates(t *testing.T, db *gorm.DB, doi string, docs ...models.Document) uint {
	t.Helper()
	group := models.DuplicateGroup{DOI: doi}
	require.NoError(t, db.Create(&group).Error)
	for _, doc := range docs {
		require.NoError(t, db.Model(&models.Document{}).
			Where("id = ?", doc.ID).
			Update("duplicate_group_id", group.ID).Error)
	}
	return group.ID
}

func strPtr(s string) *string { return &s }

func TestEligibleForPass(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	a := seedDocument(t, s.DB, search.ID, "a", "")
	b := seedDocument(t, s.DB, search.ID, "b", "")
	c := seedDocument(t, s.DB, search.ID, "c", "")
	d := seedDocument(t, s.DB, search.ID, "d", "")

	pass1, err := s.EligibleForPass(search.ID, 1)
	require.NoError(t, err)
	assert.Len(t, pass1, 4)

	// Pass 2 requires a pass-1 decision of include or uncertain.
	_, err = s.SavePassReview(a.ID, 1, strPtr(models.DecisionInclude), "", nil)
	require.NoError(t, err)
	_, err = s.SavePassReview(b.ID, 1, strPtr(models.DecisionUncertain), "", nil)
	require.NoError(t, err)
	_, err = s.SavePassReview(c.ID, 1, strPtr(models.DecisionExclude), "", []string{"EX1"})
	require.NoError(t, err)
	_ = d // no pass-1 decision

	pass2, err := s.EligibleForPass(search.ID, 2)
	require.NoError(t, err)
	require.Len(t, pass2, 2)
	assert.Equal(t, a.ID, pass2[0].ID)
	assert.Equal(t, b.ID, pass2[1].ID)

	// Metadata projection is attached.
	assert.Equal(t, "2023", pass2[0].Meta.Year)
	assert.Equal(t, "Test Journal", pass2[0].Meta.Venue)

	_, err = s.EligibleForPass(search.ID, 3)
	assert.Error(t, err)
}

func TestProgressCounts(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	a := seedDocument(t, s.DB, search.ID, "a", "")
	b := seedDocument(t, s.DB, search.ID, "b", "")
	c := seedDocument(t, s.DB, search.ID, "c", "")
	seedDocument(t, s.DB, search.ID, "d", "")

	_, err := s.SavePassReview(a.ID, 1, strPtr(models.DecisionInclude), "", nil)
	require.NoError(t, err)
	_, err = s.SavePassReview(b.ID, 1, strPtr(models.DecisionUncertain), "", nil)
	require.NoError(t, err)
	_, err = s.SavePassReview(c.ID, 1, strPtr(models.DecisionExclude), "", nil)
	require.NoError(t, err)

	// A cached suggestion without a decision counts as llm-reviewed only.
	require.NoError(t, s.StoreSuggestion(a.ID, 2, &models.Suggestion{Decision: models.DecisionInclude}))

	progress, err := s.Progress(search.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 4, progress.Total)
	assert.EqualValues(t, 3, progress.Pass1.HumanReviewed)
	assert.EqualValues(t, 1, progress.Pass1.Included)
	assert.EqualValues(t, 1, progress.Pass1.Uncertain)
	assert.EqualValues(t, 1, progress.Pass1.Excluded)

	assert.EqualValues(t, 2, progress.Pass2.Eligible)
	assert.EqualValues(t, 0, progress.Pass2.HumanReviewed)
	assert.EqualValues(t, 1, progress.Pass2.LLMReviewed)
}

func TestSavePassReviewRoundtrip(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	missing, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := s.SavePassReview(doc.ID, 1, strPtr(models.DecisionExclude), "too big", []string{"EX1", "EX99"})
	require.NoError(t, err)
	require.NotNil(t, saved.Decision)
	assert.Equal(t, models.DecisionExclude, *saved.Decision)
	assert.Equal(t, "too big", saved.Notes)
	// Unknown codes are dropped silently.
	assert.Equal(t, []string{"EX1"}, saved.ExclusionCodes)

	loaded, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, []string{"EX1"}, loaded.ExclusionCodes)

	// Saving again replaces the codes and keeps a single row.
	saved, err = s.SavePassReview(doc.ID, 1, strPtr(models.DecisionExclude), "too big", []string{"EX2", "EX3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EX2", "EX3"}, saved.ExclusionCodes)

	var rows int64
	require.NoError(t, s.DB.Model(&models.PassReview{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	_, err = s.SavePassReview(doc.ID, 1, strPtr("maybe"), "", nil)
	assert.Error(t, err)
}

func TestSavePreservesCachedSuggestion(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	sug := &models.Suggestion{Decision: models.DecisionInclude, Confidence: 0.9, Reasoning: "fits"}
	require.NoError(t, s.StoreSuggestion(doc.ID, 1, sug))

	// The suggestion alone must not create a decision.
	cached, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Nil(t, cached.Decision)
	require.NotNil(t, cached.Suggestion)
	assert.Equal(t, models.DecisionInclude, cached.Suggestion.Decision)

	// A human decision keeps the cached suggestion.
	saved, err := s.SavePassReview(doc.ID, 1, strPtr(models.DecisionExclude), "", []string{"EX1"})
	require.NoError(t, err)
	require.NotNil(t, saved.Suggestion)
	assert.Equal(t, models.DecisionInclude, saved.Suggestion.Decision)

	// And a later suggestion refresh keeps the decision.
	require.NoError(t, s.StoreSuggestion(doc.ID, 1, &models.Suggestion{Decision: models.DecisionUncertain}))
	loaded, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded.Decision)
	assert.Equal(t, models.DecisionExclude, *loaded.Decision)
	assert.Equal(t, models.DecisionUncertain, loaded.Suggestion.Decision)
}

func TestAcceptSuggestion(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	_, err := s.AcceptSuggestion(doc.ID, 1)
	assert.Error(t, err, "accepting without a cached suggestion must fail")

	sug := &models.Suggestion{
		Decision:       models.DecisionExclude,
		Confidence:     0.8,
		ExclusionCodes: []string{"EX1", "EX99"},
	}
	require.NoError(t, s.StoreSuggestion(doc.ID, 1, sug))

	accepted, err := s.AcceptSuggestion(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, accepted.Decision)
	assert.Equal(t, models.DecisionExclude, *accepted.Decision)
	// Only the known code survives the mapping.
	assert.Equal(t, []string{"EX1"}, accepted.ExclusionCodes)
	require.NotNil(t, accepted.LLMAccepted)
	assert.True(t, *accepted.LLMAccepted)
}

func TestRejectSuggestion(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	require.NoError(t, s.StoreSuggestion(doc.ID, 1, &models.Suggestion{Decision: models.DecisionInclude}))
	require.NoError(t, s.RejectSuggestion(doc.ID, 1))

	loaded, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded.LLMAccepted)
	assert.False(t, *loaded.LLMAccepted)
	// Rejection never writes a decision.
	assert.Nil(t, loaded.Decision)
}

func TestEffectivePassReviewFallback(t *testing.T) {
	s := newTestScreening(t)
	acm := seedSearch(t, s.DB, "ACM")
	ieee := seedSearch(t, s.DB, "IEEE")
	a := seedDocument(t, s.DB, acm.ID, "a", "10.1/x")
	b := seedDocument(t, s.DB, ieee.ID, "b", "10.1/x")
	linkDuplicates(t, s.DB, "10.1/x", a, b)

	// Undecided everywhere: pending, not inherited.
	effective, err := s.GetEffectivePassReview(a.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, effective.Decision)
	assert.False(t, effective.Inherited)

	// Sibling decides: the decision is inherited.
	_, err = s.SavePassReview(b.ID, 1, strPtr(models.DecisionExclude), "dup", []string{"EX2"})
	require.NoError(t, err)

	effective, err = s.GetEffectivePassReview(a.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, effective.Decision)
	assert.Equal(t, models.DecisionExclude, *effective.Decision)
	assert.Equal(t, b.ID, effective.DocumentID)
	assert.Equal(t, []string{"EX2"}, effective.ExclusionCodes)
	assert.True(t, effective.Inherited)

	// Own decision wins over the sibling's.
	_, err = s.SavePassReview(a.ID, 1, strPtr(models.DecisionInclude), "", nil)
	require.NoError(t, err)

	effective, err = s.GetEffectivePassReview(a.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, effective.Decision)
	assert.Equal(t, models.DecisionInclude, *effective.Decision)
	assert.False(t, effective.Inherited)
}

func TestEffectivePassReviewTieBreak(t *testing.T) {
	s := newTestScreening(t)
	acm := seedSearch(t, s.DB, "ACM")
	ieee := seedSearch(t, s.DB, "IEEE")
	scopus := seedSearch(t, s.DB, "Scopus")
	a := seedDocument(t, s.DB, acm.ID, "a", "10.1/x")
	b := seedDocument(t, s.DB, ieee.ID, "b", "10.1/x")
	c := seedDocument(t, s.DB, scopus.ID, "c", "10.1/x")
	linkDuplicates(t, s.DB, "10.1/x", a, b, c)

	// Conflicting sibling decisions: the most recently reviewed one wins.
	_, err := s.SavePassReview(b.ID, 1, strPtr(models.DecisionExclude), "", nil)
	require.NoError(t, err)
	require.NoError(t, s.DB.Model(&models.PassReview{}).
		Where("document_id = ?", b.ID).
		Update("reviewed_at", time.Now().Add(-time.Hour)).Error)

	_, err = s.SavePassReview(c.ID, 1, strPtr(models.DecisionInclude), "", nil)
	require.NoError(t, err)

	effective, err := s.GetEffectivePassReview(a.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, effective.Decision)
	assert.Equal(t, models.DecisionInclude, *effective.Decision)
	assert.Equal(t, c.ID, effective.DocumentID)
	assert.True(t, effective.Inherited)
}

func TestEffectiveLegacyReviewFallback(t *testing.T) {
	s := newTestScreening(t)
	acm := seedSearch(t, s.DB, "ACM")
	ieee := seedSearch(t, s.DB, "IEEE")
	a := seedDocument(t, s.DB, acm.ID, "a", "10.1/x")
	b := seedDocument(t, s.DB, ieee.ID, "b", "10.1/x")
	linkDuplicates(t, s.DB, "10.1/x", a, b)

	included := false
	_, err := s.SaveReview(b.ID, &included, "out of scope", nil, nil, []string{"EX3"})
	require.NoError(t, err)

	effective, err := s.GetEffectiveReview(a.ID)
	require.NoError(t, err)
	require.NotNil(t, effective.Included)
	assert.False(t, *effective.Included)
	assert.Equal(t, b.ID, effective.DocumentID)
	assert.Equal(t, []string{"EX3"}, effective.ExclusionCodes)
	assert.True(t, effective.Inherited)

	yes := true
	domain := models.DomainHealth
	_, err = s.SaveReview(a.ID, &yes, "", &domain, nil, nil)
	require.NoError(t, err)

	effective, err = s.GetEffectiveReview(a.ID)
	require.NoError(t, err)
	require.NotNil(t, effective.Included)
	assert.True(t, *effective.Included)
	assert.False(t, effective.Inherited)
	require.NotNil(t, effective.Domain)
	assert.Equal(t, models.DomainHealth, *effective.Domain)
}

func TestGetDocumentDetail(t *testing.T) {
	s := newTestScreening(t)
	acm := seedSearch(t, s.DB, "ACM")
	ieee := seedSearch(t, s.DB, "IEEE")
	a := seedDocument(t, s.DB, acm.ID, "a", "10.1/x")
	b := seedDocument(t, s.DB, ieee.ID, "b", "10.1/x")
	linkDuplicates(t, s.DB, "10.1/x", a, b)

	_, err := s.SetDocumentTags(a.ID, []string{"interesting", "methods"})
	require.NoError(t, err)

	detail, err := s.GetDocument(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACM", detail.SearchSource)
	assert.Equal(t, []string{"interesting", "methods"}, detail.Tags)
	require.Len(t, detail.Duplicates, 1)
	assert.Equal(t, b.ID, detail.Duplicates[0].DocumentID)
	assert.Equal(t, "IEEE", detail.Duplicates[0].Source)
}

func TestSetDocumentTagsReplaces(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	tags, err := s.SetDocumentTags(doc.ID, []string{"b", "a", "  ", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	tags, err = s.SetDocumentTags(doc.ID, []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, tags)

	// The vocabulary keeps all created tags.
	all, err := s.ListTags()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEnsureExclusionCode(t *testing.T) {
	s := newTestScreening(t)

	seeded, err := s.ListExclusionCodes()
	require.NoError(t, err)
	assert.Len(t, seeded, 5)

	created, err := s.EnsureExclusionCode("EX9", "new code")
	require.NoError(t, err)
	assert.Equal(t, "EX9", created.Code)

	// Existing descriptions are never overwritten.
	again, err := s.EnsureExclusionCode("EX9", "different text")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "new code", again.Description)

	_, err = s.EnsureExclusionCode("  ", "")
	assert.Error(t, err)
}

func TestStoredSuggestionSurvivesJSONRoundtrip(t *testing.T) {
	s := newTestScreening(t)
	search := seedSearch(t, s.DB, "ACM")
	doc := seedDocument(t, s.DB, search.ID, "a", "")

	thinking := true
	sug := &models.Suggestion{
		Decision:       models.DecisionExclude,
		Reasoning:      "high power",
		Confidence:     0.85,
		ExclusionCodes: []string{"EX1"},
		Domain:         models.SuggestionDomainEcological,
		Model:          "qwen3:8b",
		ThinkingMode:   &thinking,
		ResponseTimeMs: 1234,
	}
	require.NoError(t, s.StoreSuggestion(doc.ID, 1, sug))

	loaded, err := s.GetPassReview(doc.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded.Suggestion)

	expected, _ := json.Marshal(sug)
	actual, _ := json.Marshal(loaded.Suggestion)
	assert.JSONEq(t, string(expected), string(actual))
}

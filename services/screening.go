package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lit-review/models"
)

// DocumentWithMeta bundles a document with its common metadata projection.
type DocumentWithMeta struct {
	models.Document
	Meta models.DocumentMeta `json:"meta"`
}

// DuplicateSibling identifies another document in the same duplicate group.
type DuplicateSibling struct {
	DocumentID uint   `json:"document_id"`
	Source     string `json:"source"`
}

// DocumentDetail is the full per-document view: metadata, provenance, tags
// and duplicate-group siblings.
type DocumentDetail struct {
	DocumentWithMeta
	SearchSource string             `json:"search_source"`
	Tags         []string           `json:"tags"`
	Duplicates   []DuplicateSibling `json:"duplicates,omitempty"`
}

// PassStats are the per-pass decision counts. Human reviews (a recorded
// decision) and LLM-only reviews (a cached suggestion without a decision yet)
// are counted separately.
type PassStats struct {
	HumanReviewed int64 `json:"human_reviewed"`
	LLMReviewed   int64 `json:"llm_reviewed"`
	Included      int64 `json:"included"`
	Excluded      int64 `json:"excluded"`
	Uncertain     int64 `json:"uncertain"`
}

// Pass2Stats adds the derived eligibility count for the second pass.
type Pass2Stats struct {
	Eligible int64 `json:"eligible"`
	PassStats
}

// Progress is the screening progress of one search across both passes.
type Progress struct {
	Total int64      `json:"total"`
	Pass1 PassStats  `json:"pass1"`
	Pass2 Pass2Stats `json:"pass2"`
}

// PassReviewDetail is a pass review with its exclusion codes and the parsed
// cached suggestion, if any.
type PassReviewDetail struct {
	models.PassReview
	ExclusionCodes []string           `json:"exclusion_codes"`
	Suggestion     *models.Suggestion `json:"suggestion,omitempty"`
}

// EffectivePassDecision is the decision surfaced for a document in a pass,
// falling back to duplicate-group siblings when the document itself is
// undecided. Inherited marks a fallback hit, and DocumentID names the row
// the decision actually lives on.
type EffectivePassDecision struct {
	DocumentID     uint     `json:"document_id"`
	PassNumber     int      `json:"pass_number"`
	Decision       *string  `json:"decision"`
	Notes          string   `json:"notes,omitempty"`
	ExclusionCodes []string `json:"exclusion_codes,omitempty"`
	Inherited      bool     `json:"inherited"`
}

// ScreeningService implements the two-pass screening workflow on top of the
// relational store.
type ScreeningService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewScreeningService creates a new ScreeningService.
func NewScreeningService(db *gorm.DB, logger *zap.Logger) *ScreeningService {
	return &ScreeningService{DB: db, Logger: logger}
}

// EligibleForPass lists the documents a reviewer can work on in a pass.
// Pass 1 covers the whole search; pass 2 is restricted to documents whose
// pass-1 decision was include or uncertain. Eligibility is computed, never
// stored.
func (s *ScreeningService) EligibleForPass(searchID uint, passNumber int) ([]DocumentWithMeta, error) {
	if passNumber != 1 && passNumber != 2 {
		return nil, fmt.Errorf("invalid pass number %d", passNumber)
	}

	query := s.DB.Model(&models.Document{}).Where("document.search_id = ?", searchID)
	if passNumber == 2 {
		query = query.
			Joins("JOIN pass_review pr ON pr.document_id = document.id AND pr.pass_number = 1").
			Where("pr.decision IN ?", []string{models.DecisionInclude, models.DecisionUncertain})
	}

	var docs []models.Document
	if err := query.Order("document.id").Find(&docs).Error; err != nil {
		return nil, err
	}
	return s.attachMeta(docs)
}

// GetDocument returns the full detail view for one document.
func (s *ScreeningService) GetDocument(documentID uint) (*DocumentDetail, error) {
	var doc models.Document
	if err := s.DB.First(&doc, documentID).Error; err != nil {
		return nil, err
	}

	withMeta, err := s.attachMeta([]models.Document{doc})
	if err != nil {
		return nil, err
	}

	detail := DocumentDetail{DocumentWithMeta: withMeta[0]}

	var search models.Search
	if err := s.DB.First(&search, doc.SearchID).Error; err == nil {
		detail.SearchSource = search.Source
	}

	detail.Tags, err = s.DocumentTags(documentID)
	if err != nil {
		return nil, err
	}

	if doc.DuplicateGroupID != nil {
		detail.Duplicates, err = s.duplicateSiblings(doc.ID, *doc.DuplicateGroupID)
		if err != nil {
			return nil, err
		}
	}
	return &detail, nil
}

func (s *ScreeningService) duplicateSiblings(documentID, groupID uint) ([]DuplicateSibling, error) {
	var rows []DuplicateSibling
	err := s.DB.Model(&models.Document{}).
		Select("document.id AS document_id, search.source AS source").
		Joins("JOIN search ON search.id = document.search_id").
		Where("document.duplicate_group_id = ? AND document.id <> ?", groupID, documentID).
		Scan(&rows).Error
	return rows, err
}

// Progress derives the per-pass counts for one search by aggregating over
// pass_review rows. reviewed <= eligible <= total holds by construction.
func (s *ScreeningService) Progress(searchID uint) (*Progress, error) {
	var p Progress
	if err := s.DB.Model(&models.Document{}).
		Where("search_id = ?", searchID).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	p1, err := s.passStats(searchID, 1)
	if err != nil {
		return nil, err
	}
	p2, err := s.passStats(searchID, 2)
	if err != nil {
		return nil, err
	}

	p.Pass1 = *p1
	p.Pass2 = Pass2Stats{
		Eligible:  p1.Included + p1.Uncertain,
		PassStats: *p2,
	}
	return &p, nil
}

func (s *ScreeningService) passStats(searchID uint, passNumber int) (*PassStats, error) {
	var stats PassStats
	err := s.DB.Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN pr.decision IS NOT NULL THEN 1 ELSE 0 END), 0) AS human_reviewed,
			COALESCE(SUM(CASE WHEN pr.llm_suggestion IS NOT NULL THEN 1 ELSE 0 END), 0) AS llm_reviewed,
			COALESCE(SUM(CASE WHEN pr.decision = ? THEN 1 ELSE 0 END), 0) AS included,
			COALESCE(SUM(CASE WHEN pr.decision = ? THEN 1 ELSE 0 END), 0) AS excluded,
			COALESCE(SUM(CASE WHEN pr.decision = ? THEN 1 ELSE 0 END), 0) AS uncertain
		FROM pass_review pr
		JOIN document d ON d.id = pr.document_id
		WHERE d.search_id = ? AND pr.pass_number = ?`,
		models.DecisionInclude, models.DecisionExclude, models.DecisionUncertain,
		searchID, passNumber,
	).Scan(&stats).Error
	return &stats, err
}

// GetPassReview loads one pass review with codes and the parsed suggestion.
// Returns nil when no row exists yet.
func (s *ScreeningService) GetPassReview(documentID uint, passNumber int) (*PassReviewDetail, error) {
	var pr models.PassReview
	err := s.DB.Where("document_id = ? AND pass_number = ?", documentID, passNumber).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.passReviewDetail(&pr)
}

func (s *ScreeningService) passReviewDetail(pr *models.PassReview) (*PassReviewDetail, error) {
	detail := PassReviewDetail{PassReview: *pr, ExclusionCodes: []string{}}

	err := s.DB.Model(&models.ExclusionCode{}).
		Joins("JOIN pass_review_exclusion_code prec ON prec.exclusion_code_id = exclusion_code.id").
		Where("prec.pass_review_id = ?", pr.ID).
		Order("exclusion_code.code").
		Pluck("exclusion_code.code", &detail.ExclusionCodes).Error
	if err != nil {
		return nil, err
	}

	if pr.LLMSuggestion != nil && *pr.LLMSuggestion != "" {
		var sug models.Suggestion
		if err := json.Unmarshal([]byte(*pr.LLMSuggestion), &sug); err == nil {
			detail.Suggestion = &sug
		}
		// A corrupt cached suggestion is ignored, not fatal.
	}
	return &detail, nil
}

// SavePassReview records a human decision for one document and pass. The
// cached suggestion and llm_accepted are preserved; exclusion codes are
// replaced when the codes slice is non-nil, with unknown code strings
// silently dropped.
func (s *ScreeningService) SavePassReview(documentID uint, passNumber int, decision *string, notes string, codes []string) (*PassReviewDetail, error) {
	if passNumber != 1 && passNumber != 2 {
		return nil, fmt.Errorf("invalid pass number %d", passNumber)
	}
	if decision != nil && !models.ValidDecision(*decision) {
		return nil, fmt.Errorf("invalid decision %q", *decision)
	}

	var saved models.PassReview
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		pr, err := upsertPassReview(tx, documentID, passNumber, func(pr *models.PassReview) {
			pr.Decision = decision
			pr.Notes = notes
			pr.ReviewedAt = time.Now().UTC()
		})
		if err != nil {
			return err
		}

		if codes != nil {
			if err := replacePassReviewCodes(tx, pr.ID, codes); err != nil {
				return err
			}
		}
		saved = *pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.passReviewDetail(&saved)
}

// upsertPassReview loads or creates the (document, pass) row and applies
// mutate before writing it back.
func upsertPassReview(tx *gorm.DB, documentID uint, passNumber int, mutate func(*models.PassReview)) (*models.PassReview, error) {
	var pr models.PassReview
	err := tx.Where("document_id = ? AND pass_number = ?", documentID, passNumber).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pr = models.PassReview{
			DocumentID: documentID,
			PassNumber: passNumber,
			ReviewedAt: time.Now().UTC(),
		}
		mutate(&pr)
		if err := tx.Create(&pr).Error; err != nil {
			return nil, err
		}
		return &pr, nil
	}
	if err != nil {
		return nil, err
	}

	mutate(&pr)
	if err := tx.Save(&pr).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

func replacePassReviewCodes(tx *gorm.DB, passReviewID uint, codes []string) error {
	if err := tx.Where("pass_review_id = ?", passReviewID).
		Delete(&models.PassReviewExclusionCode{}).Error; err != nil {
		return err
	}
	known, err := mapExclusionCodes(tx, codes)
	if err != nil {
		return err
	}
	for _, code := range known {
		link := models.PassReviewExclusionCode{PassReviewID: passReviewID, ExclusionCodeID: code.ID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// mapExclusionCodes resolves code strings to vocabulary rows, dropping any
// that do not exist.
func mapExclusionCodes(tx *gorm.DB, codes []string) ([]models.ExclusionCode, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var known []models.ExclusionCode
	if err := tx.Where("code IN ?", codes).Order("code").Find(&known).Error; err != nil {
		return nil, err
	}
	return known, nil
}

// StoreSuggestion caches an LLM suggestion on the (document, pass) review
// row without touching the human decision or notes.
func (s *ScreeningService) StoreSuggestion(documentID uint, passNumber int, suggestion *models.Suggestion) error {
	raw, err := json.Marshal(suggestion)
	if err != nil {
		return err
	}
	serialized := string(raw)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		_, err := upsertPassReview(tx, documentID, passNumber, func(pr *models.PassReview) {
			pr.LLMSuggestion = &serialized
		})
		return err
	})
}

// SetLLMAccepted records whether the reviewer took the cached suggestion.
// This is a decision-time record, not reconciled when either side changes
// later.
func (s *ScreeningService) SetLLMAccepted(documentID uint, passNumber int, accepted bool) error {
	return s.DB.Model(&models.PassReview{}).
		Where("document_id = ? AND pass_number = ?", documentID, passNumber).
		Update("llm_accepted", accepted).Error
}

// AcceptSuggestion promotes the cached suggestion to the human decision:
// the suggested decision is saved, suggested exclusion codes are mapped to
// the vocabulary (unknown strings dropped), and llm_accepted is set.
func (s *ScreeningService) AcceptSuggestion(documentID uint, passNumber int) (*PassReviewDetail, error) {
	existing, err := s.GetPassReview(documentID, passNumber)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.Suggestion == nil {
		return nil, fmt.Errorf("no suggestion cached for document %d pass %d", documentID, passNumber)
	}
	sug := existing.Suggestion
	if !models.ValidDecision(sug.Decision) {
		return nil, fmt.Errorf("cached suggestion has invalid decision %q", sug.Decision)
	}

	var codes []string
	if sug.Decision == models.DecisionExclude {
		codes = sug.ExclusionCodes
	}

	detail, err := s.SavePassReview(documentID, passNumber, &sug.Decision, existing.Notes, codes)
	if err != nil {
		return nil, err
	}
	if err := s.SetLLMAccepted(documentID, passNumber, true); err != nil {
		return nil, err
	}
	accepted := true
	detail.LLMAccepted = &accepted
	return detail, nil
}

// RejectSuggestion records disagreement without altering any persisted
// decision.
func (s *ScreeningService) RejectSuggestion(documentID uint, passNumber int) error {
	return s.SetLLMAccepted(documentID, passNumber, false)
}

// GetEffectivePassReview resolves the decision surfaced for a document in a
// pass: the document's own decision wins; otherwise the most recently
// reviewed duplicate-group sibling with a decision (an explicit tie-break —
// siblings can disagree); otherwise pending.
func (s *ScreeningService) GetEffectivePassReview(documentID uint, passNumber int) (*EffectivePassDecision, error) {
	own, err := s.GetPassReview(documentID, passNumber)
	if err != nil {
		return nil, err
	}
	if own != nil && own.Decision != nil {
		return &EffectivePassDecision{
			DocumentID:     documentID,
			PassNumber:     passNumber,
			Decision:       own.Decision,
			Notes:          own.Notes,
			ExclusionCodes: own.ExclusionCodes,
		}, nil
	}

	var doc models.Document
	if err := s.DB.First(&doc, documentID).Error; err != nil {
		return nil, err
	}
	if doc.DuplicateGroupID != nil {
		var sibling models.PassReview
		err := s.DB.
			Joins("JOIN document d ON d.id = pass_review.document_id").
			Where("d.duplicate_group_id = ? AND d.id <> ? AND pass_review.pass_number = ? AND pass_review.decision IS NOT NULL",
				*doc.DuplicateGroupID, documentID, passNumber).
			Order("pass_review.reviewed_at DESC, pass_review.id DESC").
			First(&sibling).Error
		if err == nil {
			detail, err := s.passReviewDetail(&sibling)
			if err != nil {
				return nil, err
			}
			return &EffectivePassDecision{
				DocumentID:     sibling.DocumentID,
				PassNumber:     passNumber,
				Decision:       sibling.Decision,
				Notes:          sibling.Notes,
				ExclusionCodes: detail.ExclusionCodes,
				Inherited:      true,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Pending.
	return &EffectivePassDecision{DocumentID: documentID, PassNumber: passNumber}, nil
}

// attachMeta joins the three type-detail tables once per batch and projects
// them into the common metadata shape.
func (s *ScreeningService) attachMeta(docs []models.Document) ([]DocumentWithMeta, error) {
	result := make([]DocumentWithMeta, 0, len(docs))
	if len(docs) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	metaByDoc := make(map[uint]models.DocumentMeta, len(docs))

	var articles []models.Article
	if err := s.DB.Where("document_id IN ?", ids).Find(&articles).Error; err != nil {
		return nil, err
	}
	for i := range articles {
		metaByDoc[articles[i].DocumentID] = models.MetaFromArticle(&articles[i])
	}

	var procs []models.Inproceedings
	if err := s.DB.Where("document_id IN ?", ids).Find(&procs).Error; err != nil {
		return nil, err
	}
	for i := range procs {
		metaByDoc[procs[i].DocumentID] = models.MetaFromInproceedings(&procs[i])
	}

	var inbooks []models.Inbook
	if err := s.DB.Where("document_id IN ?", ids).Find(&inbooks).Error; err != nil {
		return nil, err
	}
	for i := range inbooks {
		metaByDoc[inbooks[i].DocumentID] = models.MetaFromInbook(&inbooks[i])
	}

	for _, d := range docs {
		result = append(result, DocumentWithMeta{Document: d, Meta: metaByDoc[d.ID]})
	}
	return result, nil
}

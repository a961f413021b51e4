package models

import "time"

// Screening decisions a reviewer (or the LLM) can record for a pass.
const (
	DecisionInclude   = "include"
	DecisionExclude   = "exclude"
	DecisionUncertain = "uncertain"
)

// ValidDecision reports whether s is one of the three screening decisions.
func ValidDecision(s string) bool {
	return s == DecisionInclude || s == DecisionExclude || s == DecisionUncertain
}

// PassReview is one document's state within one screening pass. Decision nil
// means pending. LLMSuggestion caches the last fetched suggestion as JSON and
// is independent of the human decision: either can exist without the other.
// LLMAccepted records agreement at decision time and is never reconciled
// afterwards.
type PassReview struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DocumentID    uint      `json:"document_id" gorm:"uniqueIndex:idx_pass_review_doc_pass;index;not null"`
	PassNumber    int       `json:"pass_number" gorm:"uniqueIndex:idx_pass_review_doc_pass;index;not null"`
	Decision      *string   `json:"decision"`
	Notes         string    `json:"notes,omitempty" gorm:"type:text"`
	LLMSuggestion *string   `json:"llm_suggestion,omitempty" gorm:"type:text"`
	LLMAccepted   *bool     `json:"llm_accepted,omitempty"`
	ReviewedAt    time.Time `json:"reviewed_at" gorm:"autoUpdateTime:false"`
}

// TableName gives the explicit table name for GORM.
func (PassReview) TableName() string {
	return "pass_review"
}

// PassReviewExclusionCode links a pass review to one of its exclusion codes.
type PassReviewExclusionCode struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	PassReviewID    uint `json:"pass_review_id" gorm:"uniqueIndex:idx_pass_review_code;not null"`
	ExclusionCodeID uint `json:"exclusion_code_id" gorm:"uniqueIndex:idx_pass_review_code;not null"`
}

// TableName gives the explicit table name for GORM.
func (PassReviewExclusionCode) TableName() string {
	return "pass_review_exclusion_code"
}

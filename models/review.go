package models

// Domain classifications for the legacy single-pass review. Note that the
// LLM suggestion side uses a different value space ("ecological" instead of
// "environmental"); the two are kept separate on purpose.
const (
	DomainHealth        = "health"
	DomainEnvironmental = "environmental"
)

// Review is the legacy single-pass review model, 1:1 with a document.
// Included is tri-state: true/false/nil (pending). Reference marks the paper
// as background material rather than a review subject.
type Review struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	DocumentID uint    `json:"document_id" gorm:"uniqueIndex;not null"`
	Included   *bool   `json:"included"`
	Notes      string  `json:"notes,omitempty" gorm:"type:text"`
	Domain     *string `json:"domain,omitempty"`
	Reference  *bool   `json:"reference,omitempty"`
}

// TableName gives the explicit table name for GORM.
func (Review) TableName() string {
	return "review"
}

// ReviewExclusionCode links a review to one of its exclusion codes.
type ReviewExclusionCode struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	ReviewID        uint `json:"review_id" gorm:"uniqueIndex:idx_review_code;not null"`
	ExclusionCodeID uint `json:"exclusion_code_id" gorm:"uniqueIndex:idx_review_code;not null"`
}

// TableName gives the explicit table name for GORM.
func (ReviewExclusionCode) TableName() string {
	return "review_exclusion_code"
}

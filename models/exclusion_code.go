package models

// ExclusionCode is a short coded justification for an "exclude" decision.
// The vocabulary is global and grows on demand as reviewers type new codes.
type ExclusionCode struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"uniqueIndex;not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

// TableName gives the explicit table name for GORM.
func (ExclusionCode) TableName() string {
	return "exclusion_code"
}

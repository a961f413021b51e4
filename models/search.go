package models

// Search records where a batch of documents came from (one row per import).
type Search struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Source  string `json:"source" gorm:"not null"` // e.g. "ACM Digital Library"
	Details string `json:"details,omitempty" gorm:"type:text"`
}

// TableName gives the explicit table name for GORM.
func (Search) TableName() string {
	return "search"
}

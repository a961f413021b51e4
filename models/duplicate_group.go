package models

// DuplicateGroup links documents that share a DOI across searches. Created
// lazily when a second document with the same non-empty DOI is imported.
// Documents with an empty DOI are never grouped.
type DuplicateGroup struct {
	ID  uint   `json:"id" gorm:"primaryKey"`
	DOI string `json:"doi" gorm:"column:doi;uniqueIndex;not null"`
}

// TableName gives the explicit table name for GORM.
func (DuplicateGroup) TableName() string {
	return "duplicate_group"
}

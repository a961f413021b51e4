package models

import "time"

// Tag is a free-form user-created label, independent of review state.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName gives the explicit table name for GORM.
func (Tag) TableName() string {
	return "tag"
}

// DocumentTag links a document to a tag.
type DocumentTag struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DocumentID uint      `json:"document_id" gorm:"uniqueIndex:idx_document_tag;index;not null"`
	TagID      uint      `json:"tag_id" gorm:"uniqueIndex:idx_document_tag;index;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName gives the explicit table name for GORM.
func (DocumentTag) TableName() string {
	return "document_tag"
}

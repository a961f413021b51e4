package models

import "time"

// PromptVersion is an immutable, content-hashed snapshot of prompt text.
// Rows are only ever appended; the highest id per name is the active version.
// A hash may recur within a name's history: rolling back means re-syncing
// older content, which appends a fresh row.
type PromptVersion struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PromptName  string    `json:"prompt_name" gorm:"index;not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	ContentHash string    `json:"content_hash" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName gives the explicit table name for GORM.
func (PromptVersion) TableName() string {
	return "prompt_version"
}

package models

import "time"

// LLMRequestLog is an append-only audit row, one per LLM call, successful or
// not. Parsed fields are null when Error is set; the raw response and timing
// are preserved either way. Rows are never updated or deleted.
type LLMRequestLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	DocumentID  uint      `json:"document_id" gorm:"index;not null"`
	PassNumber  int       `json:"pass_number" gorm:"not null"`
	RequestedAt time.Time `json:"requested_at"`

	Model        string `json:"model" gorm:"not null"`
	ThinkingMode bool   `json:"thinking_mode"`

	// Prompt versions used for this call; 0 means the built-in fallback text.
	SystemPromptID      uint `json:"system_prompt_id"`
	InclusionCriteriaID uint `json:"inclusion_criteria_id"`
	ExclusionCriteriaID uint `json:"exclusion_criteria_id"`
	UserPromptID        uint `json:"user_prompt_id"`

	FullSystemPrompt string `json:"full_system_prompt" gorm:"type:text;not null"`
	FullUserPrompt   string `json:"full_user_prompt" gorm:"type:text;not null"`
	RawResponse      string `json:"raw_response,omitempty" gorm:"type:text"`

	Decision       *string  `json:"decision,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Reasoning      *string  `json:"reasoning,omitempty" gorm:"type:text"`
	ExclusionCodes *string  `json:"exclusion_codes,omitempty"` // JSON array of code strings
	Domain         *string  `json:"domain,omitempty"`          // 'health' or 'ecological'
	Error          *string  `json:"error,omitempty" gorm:"type:text"`
	ResponseTimeMs int64    `json:"response_time_ms"`
}

// TableName gives the explicit table name for GORM.
func (LLMRequestLog) TableName() string {
	return "llm_request_log"
}

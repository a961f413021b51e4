package models

// Setting is a persisted key/value pair for runtime-adjustable options.
type Setting struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value" gorm:"not null"`
}

// TableName gives the explicit table name for GORM.
func (Setting) TableName() string {
	return "settings"
}

// Persisted setting keys for the LLM assistant.
const (
	SettingLLMAutoSuggest  = "llm_auto_suggest"
	SettingLLMThinkingMode = "llm_thinking_mode"
	SettingLLMModel        = "llm_model"
	SettingLLMHost         = "llm_host"
)

package models

// Suggestion domains use "ecological" where the legacy review model says
// "environmental". Carried as-is from the prompt contract.
const (
	SuggestionDomainHealth     = "health"
	SuggestionDomainEcological = "ecological"
)

// Suggestion is the structured, non-binding output of one LLM screening
// call. A failed call still yields a Suggestion: decision "uncertain",
// confidence 0 and Error set. This is also the shape serialized into
// pass_review.llm_suggestion.
type Suggestion struct {
	Decision       string   `json:"decision"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
	ExclusionCodes []string `json:"exclusion_codes,omitempty"`
	Domain         string   `json:"domain,omitempty"` // 'health' or 'ecological'

	RawResponse string `json:"raw_response,omitempty"`
	Error       string `json:"error,omitempty"`
	LogID       uint   `json:"log_id,omitempty"` // llm_request_log.id

	// Metadata from the run that produced this suggestion.
	Model          string `json:"model,omitempty"`
	ThinkingMode   *bool  `json:"thinking_mode,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty"`
	RequestedAt    string `json:"requested_at,omitempty"` // RFC 3339
}

// Failed reports whether the call behind this suggestion errored.
func (s *Suggestion) Failed() bool {
	return s.Error != ""
}

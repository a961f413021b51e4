package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lit-review/config"
	"lit-review/models"
	"lit-review/providers"
)

// AssistantService produces screening suggestions from an LLM chat endpoint.
// Every call, successful or not, leaves one llm_request_log row; failures
// yield an "uncertain" suggestion with Error set instead of a Go error.
// The service only produces suggestions; callers decide whether to cache
// them on the pass review.
type AssistantService struct {
	DB     *gorm.DB
	Client providers.ChatClient
	Opts   config.LLMOptions
	Logger *zap.Logger
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(db *gorm.DB, client providers.ChatClient, opts config.LLMOptions, logger *zap.Logger) *AssistantService {
	return &AssistantService{DB: db, Client: client, Opts: opts, Logger: logger}
}

// Suggest screens one document for the given pass. Pass 1 sees title and
// metadata only; pass 2 additionally sees the abstract (or an explicit
// "Not available" marker).
func (a *AssistantService) Suggest(ctx context.Context, doc *DocumentWithMeta, passNumber int) (*models.Suggestion, error) {
	if passNumber != 1 && passNumber != 2 {
		return nil, fmt.Errorf("invalid pass number %d", passNumber)
	}

	prompts := NewPromptService(a.DB)
	active, err := prompts.Active()
	if err != nil {
		return nil, err
	}

	systemPrompt := renderTemplate(active[PromptSystem].Content, map[string]string{
		"inclusion_criteria": active[PromptInclusionCriteria].Content,
		"exclusion_criteria": active[PromptExclusionCriteria].Content,
	})

	userSlot := PromptPass1User
	if passNumber == 2 {
		userSlot = PromptPass2User
	}
	userPrompt := renderTemplate(active[userSlot].Content, map[string]string{
		"paper_metadata": buildPaperMetadata(doc, passNumber == 2),
	})

	// Qwen3-style thinking toggle, prefixed to the user turn.
	llmUserPrompt := "/no_think\n" + userPrompt
	if a.Opts.ThinkingMode {
		llmUserPrompt = "/think\n" + userPrompt
	}

	requestedAt := time.Now().UTC()
	thinking := a.Opts.ThinkingMode

	callCtx, cancel := context.WithTimeout(ctx, a.Opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, chatErr := a.Client.Chat(callCtx, a.Opts.Model, []providers.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: llmUserPrompt},
	})
	elapsed := time.Since(start).Milliseconds()

	sug := models.Suggestion{
		Model:          a.Opts.Model,
		ThinkingMode:   &thinking,
		ResponseTimeMs: elapsed,
		RequestedAt:    requestedAt.Format(time.RFC3339),
	}

	switch {
	case chatErr != nil:
		sug.Decision = models.DecisionUncertain
		sug.Confidence = 0.0
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			sug.Error = fmt.Sprintf("LLM request timed out after %s", a.Opts.Timeout)
		} else {
			sug.Error = fmt.Sprintf("LLM request failed: %v", chatErr)
		}
	default:
		sug.RawResponse = raw
		if parseErr := parseSuggestion(raw, &sug); parseErr != nil {
			sug.Decision = models.DecisionUncertain
			sug.Reasoning = ""
			sug.Confidence = 0.0
			sug.ExclusionCodes = nil
			sug.Domain = ""
			sug.Error = fmt.Sprintf("Failed to parse LLM response as JSON: %v", parseErr)
		}
	}

	a.logRequest(doc.ID, passNumber, active, userSlot, systemPrompt, userPrompt, requestedAt, &sug)
	return &sug, nil
}

// TestConnection verifies the chat endpoint is reachable and the configured
// model is available.
func (a *AssistantService) TestConnection(ctx context.Context) (bool, string) {
	callCtx, cancel := context.WithTimeout(ctx, a.Opts.Timeout)
	defer cancel()

	names, err := a.Client.ListModels(callCtx)
	if err != nil {
		return false, fmt.Sprintf("Connection failed: %v", err)
	}
	for _, name := range names {
		if name == a.Opts.Model || strings.Contains(name, a.Opts.Model) {
			return true, fmt.Sprintf("Connected. Model '%s' available.", a.Opts.Model)
		}
	}
	available := "none"
	if len(names) > 0 {
		available = strings.Join(names, ", ")
	}
	return false, fmt.Sprintf("Connected but model '%s' not found. Available: %s", a.Opts.Model, available)
}

// logRequest appends the audit row. Parsed fields are nulled when the call
// errored; a logging failure is appended to the suggestion's error rather
// than failing the call.
func (a *AssistantService) logRequest(documentID uint, passNumber int, active map[string]ActivePrompt, userSlot, systemPrompt, userPrompt string, requestedAt time.Time, sug *models.Suggestion) {
	row := models.LLMRequestLog{
		DocumentID:          documentID,
		PassNumber:          passNumber,
		RequestedAt:         requestedAt,
		Model:               a.Opts.Model,
		ThinkingMode:        a.Opts.ThinkingMode,
		SystemPromptID:      active[PromptSystem].VersionID,
		InclusionCriteriaID: active[PromptInclusionCriteria].VersionID,
		ExclusionCriteriaID: active[PromptExclusionCriteria].VersionID,
		UserPromptID:        active[userSlot].VersionID,
		FullSystemPrompt:    systemPrompt,
		FullUserPrompt:      userPrompt,
		RawResponse:         sug.RawResponse,
		ResponseTimeMs:      sug.ResponseTimeMs,
	}

	if sug.Failed() {
		row.Error = &sug.Error
	} else {
		row.Decision = &sug.Decision
		row.Confidence = &sug.Confidence
		row.Reasoning = &sug.Reasoning
		if sug.Domain != "" {
			row.Domain = &sug.Domain
		}
	}
	if len(sug.ExclusionCodes) > 0 {
		if encoded, err := json.Marshal(sug.ExclusionCodes); err == nil {
			s := string(encoded)
			row.ExclusionCodes = &s
		}
	}

	if err := a.DB.Create(&row).Error; err != nil {
		a.Logger.Warn("Failed to write LLM audit log",
			zap.Uint("document_id", documentID),
			zap.Int("pass_number", passNumber),
			zap.Error(err))
		if sug.Error != "" {
			sug.Error += fmt.Sprintf("; Logging failed: %v", err)
		} else {
			sug.Error = fmt.Sprintf("Logging failed: %v", err)
		}
		return
	}
	sug.LogID = row.ID
}

// buildPaperMetadata renders the paper block for the user prompt. Empty
// fields are omitted; the abstract line only exists in pass 2 and says
// "Not available" when the record has none.
func buildPaperMetadata(doc *DocumentWithMeta, withAbstract bool) string {
	parts := []string{"Title: " + doc.Title}
	if doc.Meta.Year != "" {
		parts = append(parts, "Year: "+doc.Meta.Year)
	}
	if doc.Meta.Keywords != "" {
		parts = append(parts, "Keywords: "+doc.Meta.Keywords)
	}
	if doc.Meta.Venue != "" {
		parts = append(parts, "Venue: "+doc.Meta.Venue)
	}
	if withAbstract {
		if doc.Meta.Abstract != "" {
			parts = append(parts, "\nAbstract:\n"+doc.Meta.Abstract)
		} else {
			parts = append(parts, "\nAbstract: Not available")
		}
	}
	return strings.Join(parts, "\n")
}

// renderTemplate substitutes {name} tokens. Unknown tokens are left alone so
// a typo in a synced prompt stays visible instead of vanishing.
func renderTemplate(template string, values map[string]string) string {
	out := template
	for name, value := range values {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// parseSuggestion extracts the structured fields from a raw model response:
// code fences are stripped, the outermost JSON object is located, and
// missing fields fall back to uncertain / 0.5. Domains outside the known
// vocabulary are dropped.
func parseSuggestion(raw string, sug *models.Suggestion) error {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		var inner []string
		inBlock := false
		for _, line := range strings.Split(text, "\n") {
			switch {
			case strings.HasPrefix(line, "```") && !inBlock:
				inBlock = true
			case strings.HasPrefix(line, "```") && inBlock:
				inBlock = false
			case inBlock:
				inner = append(inner, line)
			}
		}
		text = strings.Join(inner, "\n")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	var parsed struct {
		Decision       string   `json:"decision"`
		Reasoning      string   `json:"reasoning"`
		Confidence     *float64 `json:"confidence"`
		ExclusionCodes []string `json:"exclusion_codes"`
		Domain         string   `json:"domain"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return err
	}

	sug.Decision = parsed.Decision
	if sug.Decision == "" {
		sug.Decision = models.DecisionUncertain
	}
	sug.Reasoning = parsed.Reasoning
	sug.Confidence = 0.5
	if parsed.Confidence != nil {
		sug.Confidence = *parsed.Confidence
	}
	sug.ExclusionCodes = parsed.ExclusionCodes
	sug.Domain = ""
	if parsed.Domain == models.SuggestionDomainHealth || parsed.Domain == models.SuggestionDomainEcological {
		sug.Domain = parsed.Domain
	}
	return nil
}

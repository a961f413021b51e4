package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lit-review/models"
)

// Prompt slot names. The full system prompt is assembled from the system
// template plus the two criteria blocks; the user prompt depends on the pass.
const (
	PromptSystem            = "system_prompt"
	PromptInclusionCriteria = "inclusion_criteria"
	PromptExclusionCriteria = "exclusion_criteria"
	PromptPass1User         = "pass1_user_prompt"
	PromptPass2User         = "pass2_user_prompt"
)

var promptNames = []string{
	PromptSystem,
	PromptInclusionCriteria,
	PromptExclusionCriteria,
	PromptPass1User,
	PromptPass2User,
}

// ValidPromptName reports whether name is one of the known prompt slots.
func ValidPromptName(name string) bool {
	for _, n := range promptNames {
		if n == name {
			return true
		}
	}
	return false
}

// ActivePrompt is the resolved text for one prompt slot. VersionID 0 marks
// the built-in fallback text.
type ActivePrompt struct {
	VersionID uint   `json:"version_id"`
	Content   string `json:"content"`
}

// PromptService manages the append-only prompt version history.
type PromptService struct {
	DB *gorm.DB
}

// NewPromptService creates a new PromptService.
func NewPromptService(db *gorm.DB) *PromptService {
	return &PromptService{DB: db}
}

// ContentHash is the canonical hash used to gate prompt version appends.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Sync appends a new version of the named prompt unless the content matches
// the latest stored version. Only the newest row gates the append, so
// re-syncing older content rolls back by creating a fresh version with a new
// id. Returns the version row and whether a new row was created. Existing
// versions are never modified.
func (p *PromptService) Sync(name, content string) (*models.PromptVersion, bool, error) {
	if !ValidPromptName(name) {
		return nil, false, fmt.Errorf("unknown prompt name %q", name)
	}

	hash := ContentHash(content)

	var latest models.PromptVersion
	err := p.DB.Where("prompt_name = ?", name).Order("id DESC").First(&latest).Error
	if err == nil && latest.ContentHash == hash {
		return &latest, false, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	version := models.PromptVersion{
		PromptName:  name,
		Content:     content,
		ContentHash: hash,
	}
	if err := p.DB.Create(&version).Error; err != nil {
		return nil, false, err
	}
	return &version, true, nil
}

// History returns every stored version of one prompt, oldest first.
func (p *PromptService) History(name string) ([]models.PromptVersion, error) {
	var versions []models.PromptVersion
	err := p.DB.Where("prompt_name = ?", name).Order("id").Find(&versions).Error
	return versions, err
}

// Active resolves the current text of every prompt slot: the highest stored
// version per name, or the built-in fallback (version id 0) when a slot has
// never been synced.
func (p *PromptService) Active() (map[string]ActivePrompt, error) {
	var latest []models.PromptVersion
	err := p.DB.Raw(`
		SELECT pv.* FROM prompt_version pv
		JOIN (
			SELECT prompt_name, MAX(id) AS max_id
			FROM prompt_version
			GROUP BY prompt_name
		) newest ON pv.id = newest.max_id`).Scan(&latest).Error
	if err != nil {
		return nil, err
	}

	active := map[string]ActivePrompt{
		PromptSystem:            {Content: fallbackSystemPrompt},
		PromptInclusionCriteria: {Content: fallbackInclusionCriteria},
		PromptExclusionCriteria: {Content: fallbackExclusionCriteria},
		PromptPass1User:         {Content: fallbackPass1UserPrompt},
		PromptPass2User:         {Content: fallbackPass2UserPrompt},
	}
	for _, v := range latest {
		active[v.PromptName] = ActivePrompt{VersionID: v.ID, Content: v.Content}
	}
	return active, nil
}

// Built-in fallback prompts, used for any slot with no synced version. The
// system template embeds the criteria blocks via {inclusion_criteria} and
// {exclusion_criteria}; the user templates embed {paper_metadata}.
const fallbackInclusionCriteria = `
INC.1: Peer-reviewed publication
INC.2: Published 2022-2025
INC.3: Custom development (not COTS-assembled)
INC.4: Embedded wireless sensing (~<=100mW, microprocessor-based)
INC.5: In-situ deployment (real-world, situated)
INC.6: Health or ecology domain
INC.7: Target specificity (specific population or environmental context)
`

const fallbackExclusionCriteria = `
EX.1: High-power processing (video, audio, RF requiring ~>=500mW)
EX.2: COTS-primary (smartphones, smartwatches, commercial devices)
EX.3: Out-of-scope platforms (vehicles, UAVs, drones)
EX.4: Out-of-scope applications (VR/AR, entertainment, general-purpose tech)
EX.5: Application-agnostic (no targeted application, e.g., wireless security)
`

const fallbackSystemPrompt = `You are an expert research assistant helping with a systematic literature review.
The review focuses on embedded wireless sensing systems for health monitoring or ecological applications.

Your task is to screen papers based on their title, metadata, and (when available) abstract.

INCLUSION CRITERIA (paper must meet ALL of these):
{inclusion_criteria}

EXCLUSION CRITERIA (paper is excluded if it matches ANY of these):
{exclusion_criteria}

IMPORTANT GUIDELINES:
- Give benefit of the doubt: Only exclude if clearly out of scope
- When uncertain, choose "uncertain" to defer to human review
- For Pass 1 (title/metadata only), be more lenient since you lack the abstract
- For Pass 2 (with abstract), you can make more confident decisions

Respond ONLY with valid JSON in this exact format:
{
  "decision": "include|exclude|uncertain",
  "confidence": 0.0-1.0,
  "reasoning": "Brief explanation (1-2 sentences)",
  "exclusion_codes": ["EX.1"]
}

The exclusion_codes array should only be populated if decision is "exclude".
Use the codes from the exclusion criteria list above.`

const fallbackPass1UserPrompt = `PASS 1 SCREENING (Title and Metadata Only)

Paper Information:
{paper_metadata}

Note: In Pass 1, you only have the title and metadata. Be lenient - if there's any chance
the paper could be relevant based on this limited information, mark it as "include" or "uncertain".
Only exclude if clearly out of scope.

Provide your assessment as JSON:`

const fallbackPass2UserPrompt = `PASS 2 SCREENING (Full Metadata with Abstract)

Paper Information:
{paper_metadata}

Now that you have the abstract, you can make a more informed decision.
Still give benefit of the doubt, but you can be more confident in exclusions
if the abstract clearly indicates the paper is out of scope.

Provide your assessment as JSON:`

package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scrypster/reverie/pkg/types"
)

// ExtractionResponse is the typed result of the extraction prompt.
type ExtractionResponse struct {
	Entities   []EntityResponse   `json:"entities"`
	Categories []CategoryResponse `json:"categories"`
	Summary    string             `json:"summary"`
}

// EntityResponse is a single entity from the extractor.
type EntityResponse struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// CategoryResponse is a single category from the extractor.
type CategoryResponse struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// BlockerResponse is the typed result of the blocker/risk analyzer.
type BlockerResponse struct {
	IsBlocker       bool   `json:"is_blocker"`
	RiskLevel       string `json:"risk_level"`
	AffectedProject string `json:"affected_project"`
}

// NudgeResponse is a single social nudge from the analyzer.
type NudgeResponse struct {
	PersonName string `json:"person_name"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// ActionResponse is a single action item from the actionability analyzer.
type ActionResponse struct {
	Description string `json:"description"`
	Urgency     int    `json:"urgency"`
	Deadline    string `json:"deadline,omitempty"`
}

// ConsistencyResponse is the typed result of the consistency audit.
type ConsistencyResponse struct {
	HasContradiction bool   `json:"has_contradiction"`
	Analysis         string `json:"analysis"`
}

// PARAResponse is the typed result of the PARA classifier.
type PARAResponse struct {
	Bucket     string  `json:"bucket"`
	Confidence float64 `json:"confidence"`
}

// PersonProfileResponse is the typed result of person synthesis. UserFact is
// a durable fact about the author, when the notes imply one.
type PersonProfileResponse struct {
	Summary     string   `json:"summary"`
	LastContact string   `json:"last_contact"`
	OpenLoops   []string `json:"open_loops"`
	UserFact    string   `json:"user_fact"`
}

// ProjectProfileResponse is the typed result of project synthesis.
type ProjectProfileResponse struct {
	Status    string   `json:"status"`
	Blockers  []string `json:"blockers"`
	NextSteps []string `json:"next_steps"`
}

// ExtractJSON pulls the first balanced JSON object out of a string that may
// carry extra prose. Models add explanations around the JSON no matter what
// the prompt says; brace matching outside string literals recovers it.
func ExtractJSON(text string) string {
	return extractBalanced(text, '{', '}')
}

// ExtractJSONArray does the same for a top-level JSON array.
func ExtractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, open)
	if start == -1 {
		return text // No JSON found; let the caller's parse fail.
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		char := text[i]
		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch char {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}

// ParseExtraction parses the extraction response. Entities with empty names
// are dropped rather than failing the batch; an error means the JSON itself
// was malformed.
func ParseExtraction(raw string) (*ExtractionResponse, error) {
	var out ExtractionResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}

	valid := out.Entities[:0]
	for _, e := range out.Entities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		if e.Type == "" {
			e.Type = types.EntityTypeConcept
		}
		e.Type = strings.ToLower(e.Type)
		valid = append(valid, e)
	}
	out.Entities = valid

	cats := out.Categories[:0]
	for _, c := range out.Categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if !types.IsValidCategory(name) {
			continue
		}
		c.Name = name
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		cats = append(cats, c)
	}
	out.Categories = cats

	out.Summary = truncateSummary(out.Summary, 150)
	return &out, nil
}

// truncateSummary caps a summary at max bytes, cutting on a rune boundary so
// multi-byte text is never split mid-sequence.
func truncateSummary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// ParseEntityList parses a refiner response of the form {"entities": [...]}.
func ParseEntityList(raw string) ([]EntityResponse, error) {
	var out struct {
		Entities []EntityResponse `json:"entities"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed entity list: %w", err)
	}
	valid := out.Entities[:0]
	for _, e := range out.Entities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		if e.Type == "" {
			e.Type = types.EntityTypeConcept
		}
		e.Type = strings.ToLower(e.Type)
		valid = append(valid, e)
	}
	return valid, nil
}

// ParseBlocker parses the blocker analyzer response and normalizes the risk
// level to the known enum.
func ParseBlocker(raw string) (*BlockerResponse, error) {
	var out BlockerResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed blocker response: %w", err)
	}
	switch strings.ToLower(out.RiskLevel) {
	case types.RiskLow, types.RiskMedium, types.RiskHigh:
		out.RiskLevel = strings.ToLower(out.RiskLevel)
	default:
		out.RiskLevel = types.RiskNone
	}
	if strings.EqualFold(out.AffectedProject, "null") || strings.EqualFold(out.AffectedProject, "none") {
		out.AffectedProject = ""
	}
	return &out, nil
}

// ParseNudges parses the social-nudge analyzer response, dropping entries
// without a person name.
func ParseNudges(raw string) ([]NudgeResponse, error) {
	var out struct {
		Nudges []NudgeResponse `json:"nudges"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed nudge response: %w", err)
	}
	valid := out.Nudges[:0]
	for _, n := range out.Nudges {
		if strings.TrimSpace(n.PersonName) == "" {
			continue
		}
		valid = append(valid, n)
	}
	return valid, nil
}

// ParseActions parses the actionability analyzer response, clamping urgency
// into [1,5] and dropping entries without a description.
func ParseActions(raw string) ([]ActionResponse, error) {
	var out struct {
		Actions []ActionResponse `json:"actions"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed action response: %w", err)
	}
	valid := out.Actions[:0]
	for _, a := range out.Actions {
		if strings.TrimSpace(a.Description) == "" {
			continue
		}
		if a.Urgency < 1 {
			a.Urgency = 1
		}
		if a.Urgency > 5 {
			a.Urgency = 5
		}
		valid = append(valid, a)
	}
	return valid, nil
}

// ParseConsistency parses the consistency audit response.
func ParseConsistency(raw string) (*ConsistencyResponse, error) {
	var out ConsistencyResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed consistency response: %w", err)
	}
	return &out, nil
}

// ParsePARA parses the PARA classifier response. An unknown bucket falls
// back to resource, the taxonomy's catch-all.
func ParsePARA(raw string) (*PARAResponse, error) {
	var out PARAResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed PARA response: %w", err)
	}
	switch strings.ToLower(out.Bucket) {
	case types.PARAProject, types.PARAArea, types.PARAResource, types.PARAArchive:
		out.Bucket = strings.ToLower(out.Bucket)
	default:
		out.Bucket = types.PARAResource
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return &out, nil
}

// ParsePersonProfile parses the person synthesis response.
func ParsePersonProfile(raw string) (*PersonProfileResponse, error) {
	var out PersonProfileResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed person profile response: %w", err)
	}
	out.UserFact = strings.TrimSpace(out.UserFact)
	if strings.EqualFold(out.UserFact, "null") || strings.EqualFold(out.UserFact, "none") {
		out.UserFact = ""
	}
	return &out, nil
}

// ParseProjectProfile parses the project synthesis response.
func ParseProjectProfile(raw string) (*ProjectProfileResponse, error) {
	var out ProjectProfileResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("malformed project profile response: %w", err)
	}
	return &out, nil
}

package oracle

import (
	"fmt"
	"strings"
)

// Prompt builders for every pipeline stage. Prompts fold the system
// instruction and user content into one completion request, matching the
// single-prompt contract of the clients. Every prompt that expects JSON says
// so twice; models still wrap it in prose, which ExtractJSON handles.

const extractionTemplate = `You are an information extraction system for a personal knowledge base.
Extract entities, categories, and a one-line summary from the thought below.

Entity types: person, project, topic, organization, tool, goal, place, concept, skill.
Categories (choose zero or more): work, personal, health, learning, relationships, finance, ideas, planning.

Prior context:
%s

Thought:
%s

Respond with ONLY a JSON object:
{"entities": [{"name": "...", "type": "...", "description": "..."}],
 "categories": [{"name": "...", "confidence": 0.0}],
 "summary": "one line under 150 characters"}`

// ExtractionPrompt builds the extraction stage prompt.
func ExtractionPrompt(thought, context string) string {
	if context == "" {
		context = "(none)"
	}
	return fmt.Sprintf(extractionTemplate, context, thought)
}

const critiqueTemplate = `You are reviewing an entity extraction for completeness.

Thought:
%s

Context:
%s

Extracted entities: %s

If the extraction is complete, reply with exactly "Looks good."
Otherwise describe briefly what is missing or wrong (for example a missing person, project, or relationship).`

// CritiquePrompt builds the reflection critic prompt.
func CritiquePrompt(thought, context string, entityNames []string) string {
	names := "(none)"
	if len(entityNames) > 0 {
		names = strings.Join(entityNames, ", ")
	}
	if context == "" {
		context = "(none)"
	}
	return fmt.Sprintf(critiqueTemplate, thought, context, names)
}

const refineTemplate = `You are refining an entity extraction based on a reviewer's critique.

Thought:
%s

Current entities: %s

Critique:
%s

Return the corrected entity list, keeping correct entries and adding what the
critique identified. Respond with ONLY a JSON object:
{"entities": [{"name": "...", "type": "...", "description": "..."}]}`

// RefinePrompt builds the reflection refiner prompt.
func RefinePrompt(thought, critique string, entityNames []string) string {
	names := "(none)"
	if len(entityNames) > 0 {
		names = strings.Join(entityNames, ", ")
	}
	return fmt.Sprintf(refineTemplate, thought, names, critique)
}

const blockerTemplate = `You detect blockers and risks in personal notes.

Known projects: %s

Thought:
%s

Is the author blocked or at risk on any project? Respond with ONLY a JSON object:
{"is_blocker": false, "risk_level": "none|low|medium|high", "affected_project": "project name or null"}`

// BlockerPrompt builds the blocker/risk analyzer prompt.
func BlockerPrompt(thought string, projects []string) string {
	known := "(none)"
	if len(projects) > 0 {
		known = strings.Join(projects, ", ")
	}
	return fmt.Sprintf(blockerTemplate, known, thought)
}

const nudgeTemplate = `You suggest social follow-ups based on a personal note.

People mentioned or known: %s

Thought:
%s

Suggest at most two follow-ups worth making. Respond with ONLY a JSON object:
{"nudges": [{"person_name": "...", "reason": "...", "suggestion": "..."}]}
Use an empty list if nothing is worth suggesting.`

// NudgePrompt builds the social-nudge analyzer prompt.
func NudgePrompt(thought string, people []string) string {
	known := "(none)"
	if len(people) > 0 {
		known = strings.Join(people, ", ")
	}
	return fmt.Sprintf(nudgeTemplate, known, thought)
}

const actionTemplate = `You extract concrete action items from a personal note.

Thought:
%s

List the tasks the author committed to or should do, with urgency 1 (someday)
to 5 (now) and a deadline if one is stated. Respond with ONLY a JSON object:
{"actions": [{"description": "...", "urgency": 3, "deadline": "natural language or empty"}]}
Use an empty list if there are no actions.`

// ActionPrompt builds the actionability analyzer prompt.
func ActionPrompt(thought string) string {
	return fmt.Sprintf(actionTemplate, thought)
}

const consistencyTemplate = `You audit a new note against earlier notes for contradictions.

Earlier notes:
%s

New thought:
%s

Respond with ONLY a JSON object:
{"has_contradiction": false, "analysis": "one or two sentences"}`

// ConsistencyPrompt builds the consistency audit prompt.
func ConsistencyPrompt(thought, priorNotes string) string {
	if priorNotes == "" {
		priorNotes = "(none)"
	}
	return fmt.Sprintf(consistencyTemplate, priorNotes, thought)
}

const emotionTemplate = `Describe the emotional tone of this note in one or two plain sentences.
Do not diagnose; just name what the text carries (stress, excitement, doubt).

Note:
%s`

// EmotionPrompt builds the emotional-tone audit prompt.
func EmotionPrompt(thought string) string {
	return fmt.Sprintf(emotionTemplate, thought)
}

const serendipityTemplate = `Two things in a personal knowledge base are indirectly connected:
"%s" and "%s" appear together in %d past notes.

Write one short, curious question (under 25 words) nudging the author to
explore that connection. Reply with only the question.`

// SerendipityPrompt builds the structural-hole nudge prompt.
func SerendipityPrompt(entityA, entityB string, shared int) string {
	return fmt.Sprintf(serendipityTemplate, entityA, entityB, shared)
}

const paraTemplate = `Classify this note into the PARA taxonomy:
project (active effort with an outcome), area (ongoing responsibility),
resource (reference material), archive (no longer active).

Note:
%s

Respond with ONLY a JSON object: {"bucket": "...", "confidence": 0.0}`

// PARAPrompt builds the PARA classification prompt.
func PARAPrompt(thought string) string {
	return fmt.Sprintf(paraTemplate, thought)
}

const responseTemplate = `You are a thoughtful personal knowledge assistant.
%s
Conversation so far:
%s

Related notes:
%s

Past thoughts about the things mentioned:
%s

The user just wrote:
%s

Reply in 2-4 sentences. Acknowledge what they said, connect it to what you
know when genuinely relevant, and surface anything actionable. No bullet
points, no headers.`

// ResponsePrompt builds the full-path responder prompt. The register line
// comes from the intent classifier; profileContext and related may be empty.
func ResponsePrompt(thought, digest, notes, related, register, profileContext string) string {
	preamble := register
	if profileContext != "" {
		preamble = profileContext + "\n" + register
	}
	if digest == "" {
		digest = "(none)"
	}
	if notes == "" {
		notes = "(none)"
	}
	if related == "" {
		related = "(none)"
	}
	return fmt.Sprintf(responseTemplate, preamble, digest, notes, related, thought)
}

const simpleResponseTemplate = `You are a friendly personal knowledge assistant.

Conversation so far:
%s

The user wrote: %s

Reply in one short, warm sentence.`

// SimpleResponsePrompt builds the simple-path responder prompt.
func SimpleResponsePrompt(thought, digest string) string {
	if digest == "" {
		digest = "(none)"
	}
	return fmt.Sprintf(simpleResponseTemplate, digest, thought)
}

const personSynthesisTemplate = `Synthesize what these notes say about %s.

Notes:
%s

Respond with ONLY a JSON object:
{"summary": "2-3 sentences", "last_contact": "free text", "open_loops": ["..."],
 "user_fact": "one durable fact about the author these notes reveal, or null"}`

// PersonSynthesisPrompt builds the person profile synthesis prompt.
func PersonSynthesisPrompt(name string, notes []string) string {
	return fmt.Sprintf(personSynthesisTemplate, name, strings.Join(notes, "\n- "))
}

const projectSynthesisTemplate = `Synthesize the state of the project "%s" from these notes.

Notes:
%s

Respond with ONLY a JSON object:
{"status": "2-3 sentences", "blockers": ["..."], "next_steps": ["..."]}`

// ProjectSynthesisPrompt builds the project profile synthesis prompt.
func ProjectSynthesisPrompt(name string, notes []string) string {
	return fmt.Sprintf(projectSynthesisTemplate, name, strings.Join(notes, "\n- "))
}

const briefingTemplate = `Turn this raw daily digest into a short, friendly briefing
(3-5 sentences, no lists):

%s`

// BriefingPrompt builds the daily briefing polish prompt.
func BriefingPrompt(rawDigest string) string {
	return fmt.Sprintf(briefingTemplate, rawDigest)
}

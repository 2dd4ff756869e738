package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

const (
	digestMessageLimit = 6
	retrievalTopK      = 3

	// maxContextChars bounds retrieved_notes before the head-and-tail
	// compression kicks in.
	maxContextChars = 2000

	compressionMarker = "... [context compressed] ..."
)

// interrogativeLeads mark a thought as a question even without a "?".
var interrogativeLeads = []string{
	"what", "when", "where", "who", "why", "how",
	"did", "do", "does", "is", "are", "was", "were",
	"can", "could", "should", "would",
}

// contextLoader assembles everything the rest of the pipeline reads: the
// conversation digest, retrieved notes from vector and keyword search, and
// the question flag. All storage failures degrade to empty context; a
// retrieval problem must never block capturing the thought itself.
type contextLoader struct {
	gateway storage.Gateway
	index   storage.VectorIndex
}

func newContextLoader(gateway storage.Gateway, index storage.VectorIndex) *contextLoader {
	return &contextLoader{gateway: gateway, index: index}
}

// Load populates the digest, retrieval, and question fields of the state
// and resets the reflection counter.
func (c *contextLoader) Load(ctx context.Context, state *types.AgentState) {
	state.ReflectionIterations = 0
	question := isQuestion(state.Thought)
	if question {
		state.IsQuestion = "yes"
	} else {
		state.IsQuestion = "no"
	}

	digest, err := c.gateway.GetConversationDigest(ctx, digestMessageLimit)
	if err != nil {
		log.Printf("agent: conversation digest unavailable: %v", err)
		digest = ""
	}
	state.ConversationDigest = digest

	notes := c.retrieve(ctx, state.Thought, question)
	if len(notes) > maxContextChars {
		compressed := compressHeadTail(notes, maxContextChars)
		state.ContextCompressed = len(compressed) < len(notes)
		notes = compressed
	}
	state.RetrievedNotes = notes
}

// retrieve runs similarity search always, plus keyword search when the
// thought is a question. Each leg degrades independently.
func (c *contextLoader) retrieve(ctx context.Context, thought string, question bool) string {
	var sections []string

	similar, err := c.index.QuerySimilar(ctx, thought, retrievalTopK)
	if err != nil {
		log.Printf("agent: similarity retrieval failed: %v", err)
	}
	if len(similar) > 0 {
		var b strings.Builder
		b.WriteString("Related notes:\n")
		for _, hit := range similar {
			fmt.Fprintf(&b, "- %s\n", hit.Text)
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	if question {
		matches, err := c.gateway.SearchContent(ctx, thought, retrievalTopK)
		if err != nil {
			log.Printf("agent: keyword retrieval failed: %v", err)
		}
		if len(matches) > 0 {
			var b strings.Builder
			b.WriteString("Matching past thoughts:\n")
			for _, t := range matches {
				fmt.Fprintf(&b, "- %s\n", t.Content)
			}
			sections = append(sections, strings.TrimRight(b.String(), "\n"))
		}
	}

	return strings.Join(sections, "\n\n")
}

// isQuestion applies the question heuristic: a "?" anywhere, or an
// interrogative lead word.
func isQuestion(thought string) bool {
	if strings.Contains(thought, "?") {
		return true
	}
	fields := strings.Fields(strings.ToLower(thought))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.!:;")
	for _, lead := range interrogativeLeads {
		if first == lead {
			return true
		}
	}
	return false
}

// compressHeadTail keeps the opening and closing lines of the text, joined
// by an explicit marker, so both the earliest and most recent context
// survive the budget. When there is no middle to drop, or dropping it would
// not shrink the text, it hard-truncates instead; an over-budget input
// always comes back strictly shorter.
func compressHeadTail(text string, budget int) string {
	if len(text) <= budget {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return truncateRunes(text, budget)
	}

	perSide := (budget - len(compressionMarker)) / 2

	var head []string
	headLen := 0
	for _, line := range lines {
		if len(head) > 0 && headLen+len(line) > perSide {
			break
		}
		head = append(head, line)
		headLen += len(line) + 1
	}

	var tail []string
	tailLen := 0
	for i := len(lines) - 1; i > len(head)-1; i-- {
		line := lines[i]
		if len(tail) > 0 && tailLen+len(line) > perSide {
			break
		}
		tail = append([]string{line}, tail...)
		tailLen += len(line) + 1
	}

	if len(head)+len(tail) >= len(lines) {
		return truncateRunes(text, budget)
	}

	parts := append([]string{}, head...)
	parts = append(parts, compressionMarker)
	parts = append(parts, tail...)
	joined := strings.Join(parts, "\n")
	if len(joined) >= len(text) {
		return truncateRunes(text, budget)
	}
	return joined
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8
// sequence, marking the cut with an ellipsis.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

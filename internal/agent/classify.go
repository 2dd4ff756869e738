package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/pkg/types"
)

// timeNow is swapped in tests that exercise date-relative behavior.
var timeNow = time.Now

// paraKeywords back the classifier when the oracle is unavailable. First
// matching bucket wins; order reflects specificity.
var paraKeywords = []struct {
	bucket   string
	keywords []string
}{
	{types.PARAArchive, []string{"done with", "finished", "no longer", "wrapped up", "shipped"}},
	{types.PARAProject, []string{"deadline", "launch", "ship", "milestone", "deliver", "sprint"}},
	{types.PARAArea, []string{"health", "finances", "routine", "habit", "relationship", "maintenance"}},
	{types.PARAResource, []string{"article", "read", "interesting", "reference", "learned", "til"}},
}

// classifier assigns the PARA bucket for a thought, oracle first with a
// keyword fallback so classification never fails outright.
type classifier struct {
	generator oracle.TextGenerator
}

func newClassifier(generator oracle.TextGenerator) *classifier {
	return &classifier{generator: generator}
}

// Classify sets the PARA bucket on the state.
func (c *classifier) Classify(ctx context.Context, state *types.AgentState) {
	reply, err := c.generator.Complete(ctx, oracle.PARAPrompt(state.Thought))
	if err != nil {
		log.Printf("agent: PARA classification failed, using keyword fallback: %v", err)
		state.PARABucket = keywordPARA(state.Thought)
		return
	}
	parsed, err := oracle.ParsePARA(reply)
	if err != nil {
		state.PARABucket = keywordPARA(state.Thought)
		return
	}
	state.PARABucket = parsed.Bucket
}

// keywordPARA is the deterministic fallback bucket assignment.
func keywordPARA(thought string) string {
	lower := strings.ToLower(thought)
	for _, entry := range paraKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.bucket
			}
		}
	}
	return types.PARAResource
}

// weekdayNames maps spoken weekday references for deadline normalization.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// NormalizeDeadline converts relative deadline phrases ("today",
// "tomorrow", "next week", a weekday name) into an ISO date anchored at
// now. Anything unrecognized passes through unchanged, including dates
// already in ISO form.
func NormalizeDeadline(deadline string, now time.Time) string {
	phrase := strings.ToLower(strings.TrimSpace(deadline))
	if phrase == "" {
		return ""
	}

	switch phrase {
	case "today", "tonight", "end of day", "eod":
		return isoDate(now)
	case "tomorrow":
		return isoDate(now.AddDate(0, 0, 1))
	case "next week":
		return isoDate(now.AddDate(0, 0, 7))
	}

	name := strings.TrimPrefix(phrase, "next ")
	name = strings.TrimPrefix(name, "by ")
	name = strings.TrimPrefix(name, "on ")
	if wd, ok := weekdayNames[name]; ok {
		days := int(wd-now.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		return isoDate(now.AddDate(0, 0, days))
	}

	return deadline
}

func isoDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}

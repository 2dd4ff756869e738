package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/reverie/internal/oracle"
)

// Briefing composes the daily digest: open blockers, thoughts due for
// review, pending actions, and recent nudges. Each section degrades
// independently; the oracle polishes the final text with a plain template
// fallback.
func (a *Agent) Briefing(ctx context.Context) (string, error) {
	var sections []string

	blockers := a.openBlockers(ctx)
	if blockers != "" {
		sections = append(sections, "Open blockers:\n"+blockers)
	}

	due, err := a.reviewer.DueForReview(ctx, 5)
	if err != nil {
		log.Printf("agent: briefing review queue unavailable: %v", err)
	} else if len(due) > 0 {
		var b strings.Builder
		for _, t := range due {
			fmt.Fprintf(&b, "- %s\n", t.Summary)
		}
		sections = append(sections, "Worth revisiting:\n"+strings.TrimRight(b.String(), "\n"))
	}

	actions, err := a.gateway.PendingActions(ctx, 10)
	if err != nil {
		log.Printf("agent: briefing actions unavailable: %v", err)
	} else if len(actions) > 0 {
		var b strings.Builder
		for _, action := range actions {
			if action.Deadline != "" {
				fmt.Fprintf(&b, "- %s (by %s)\n", action.Description, action.Deadline)
			} else {
				fmt.Fprintf(&b, "- %s\n", action.Description)
			}
		}
		sections = append(sections, "Pending actions:\n"+strings.TrimRight(b.String(), "\n"))
	}

	nudges, err := a.gateway.RecentNudges(ctx, 3)
	if err != nil {
		log.Printf("agent: briefing nudges unavailable: %v", err)
	} else if len(nudges) > 0 {
		var b strings.Builder
		for _, n := range nudges {
			fmt.Fprintf(&b, "- %s: %s\n", n.PersonName, n.Suggestion)
		}
		sections = append(sections, "People:\n"+strings.TrimRight(b.String(), "\n"))
	}

	if len(sections) == 0 {
		return "Nothing needs your attention today. Clean slate.", nil
	}

	raw := strings.Join(sections, "\n\n")
	polished, err := a.generator.Complete(ctx, oracle.BriefingPrompt(raw))
	if err != nil || strings.TrimSpace(polished) == "" {
		return raw, nil
	}
	return strings.TrimSpace(polished), nil
}

// openBlockers renders recent blocker thoughts grouped by project.
func (a *Agent) openBlockers(ctx context.Context) string {
	stats, err := a.gateway.Stats(ctx)
	if err != nil || stats.Thoughts == 0 {
		return ""
	}

	var lines []string
	seen := map[string]bool{}
	thoughts, err := a.gateway.SearchContent(ctx, "blocked", 10)
	if err != nil {
		return ""
	}
	for _, t := range thoughts {
		if !t.IsBlocker || t.AffectedProject == "" || seen[t.AffectedProject] {
			continue
		}
		seen[t.AffectedProject] = true
		lines = append(lines, fmt.Sprintf("- %s: %s", t.AffectedProject, t.Summary))
	}
	return strings.Join(lines, "\n")
}

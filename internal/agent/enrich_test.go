package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/pkg/types"
)

func newTestBank(gen *fakeGenerator, gw *fakeGateway, t *testing.T) *enrichmentBank {
	t.Helper()
	profiles := profile.NewService(filepath.Join(t.TempDir(), "profile.yaml"))
	return newEnrichmentBank(gen, gw, profiles)
}

func TestEnrichPopulatesAllSignals(t *testing.T) {
	gen := newFakeGenerator()
	gen.on("detect blockers", `{"is_blocker": true, "risk_level": "medium", "affected_project": "Atlas"}`)
	gen.on("social follow-ups", `{"nudges": [{"person_name": "Sam", "reason": "long silence", "suggestion": "Call Sam"}]}`)
	gen.on("concrete action items", `{"actions": [{"description": "Escalate the vendor issue", "urgency": 9}]}`)

	bank := newTestBank(gen, newFakeGateway(), t)
	state := types.NewAgentState("Atlas is stuck on the vendor contract again and I have not talked to Sam in weeks")
	bank.Enrich(context.Background(), state)

	if !state.IsBlocker || state.AffectedProject != "Atlas" || state.RiskLevel != types.RiskMedium {
		t.Errorf("blocker signal = (%v, %q, %q), want (true, Atlas, medium)",
			state.IsBlocker, state.AffectedProject, state.RiskLevel)
	}
	if len(state.Nudges) != 1 || state.Nudges[0].PersonName != "Sam" {
		t.Errorf("nudges = %+v, want one for Sam", state.Nudges)
	}
	if len(state.Actions) != 1 {
		t.Fatalf("actions = %+v, want one", state.Actions)
	}
	if state.Actions[0].Urgency != 5 {
		t.Errorf("urgency = %d, want clamped to 5", state.Actions[0].Urgency)
	}
	if state.Actions[0].Status != types.ActionPending {
		t.Errorf("status = %q, want pending", state.Actions[0].Status)
	}
}

func TestEnrichFailuresAreIndependent(t *testing.T) {
	// Blocker analyzer gets garbage while actions succeed; one analyzer's
	// failure must not touch another's output.
	gen := newFakeGenerator()
	gen.on("detect blockers", "not json at all")
	gen.on("concrete action items", `{"actions": [{"description": "File the report", "urgency": 2}]}`)

	bank := newTestBank(gen, newFakeGateway(), t)
	state := types.NewAgentState("a thought long enough to clear the deep analysis gate comfortably")
	bank.Enrich(context.Background(), state)

	if state.IsBlocker || state.RiskLevel != types.RiskNone {
		t.Errorf("blocker = (%v, %q), want neutral default", state.IsBlocker, state.RiskLevel)
	}
	if len(state.Actions) != 1 {
		t.Errorf("actions = %+v, want one despite blocker failure", state.Actions)
	}
}

func TestDeepAnalyzersGatedByLength(t *testing.T) {
	gen := newFakeGenerator()
	bank := newTestBank(gen, newFakeGateway(), t)

	short := types.NewAgentState("short thought")
	bank.Enrich(context.Background(), short)
	if n := gen.callCount("emotional tone"); n != 0 {
		t.Errorf("emotional analyzer ran %d times for short input, want 0", n)
	}

	long := types.NewAgentState("a much longer thought that crosses the substantive threshold for the deep analyzers to run")
	bank.Enrich(context.Background(), long)
	if n := gen.callCount("emotional tone"); n != 1 {
		t.Errorf("emotional analyzer ran %d times for long input, want 1", n)
	}
}

package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/pkg/types"
)

// responder generates the conversational reply. The intent classification
// picks the instruction register; enrichment signals are folded into the
// reply text so the user sees blockers and serendipities inline.
type responder struct {
	generator oracle.TextGenerator
	profiles  *profile.Service
}

func newResponder(generator oracle.TextGenerator, profiles *profile.Service) *responder {
	return &responder{generator: generator, profiles: profiles}
}

// registers map intent to the responder instruction style.
var registers = map[string]string{
	types.IntentSimple:    "Acknowledge warmly and briefly. One or two sentences.",
	types.IntentUtility:   "Be practical and concrete. Confirm what was captured and any deadlines.",
	types.IntentStrategic: "Think alongside the user. Connect this to their stated goals and ask one good question.",
}

// Respond fills state.Response for the full pipeline.
func (r *responder) Respond(ctx context.Context, state *types.AgentState) {
	profileContext := ""
	if prof, err := r.profiles.Load(); err == nil {
		profileContext = prof.ContextPrompt()
	}

	register := registers[state.Intent]
	if register == "" {
		register = registers[types.IntentSimple]
	}

	prompt := oracle.ResponsePrompt(state.Thought, state.ConversationDigest, state.RetrievedNotes, state.RelatedContext, register, profileContext)
	reply, err := r.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("agent: response generation failed: %v", err)
		reply = "Got it, noted."
	}

	state.Response = attachSignals(strings.TrimSpace(reply), state)
}

// SimpleRespond fills state.Response for the simple path: greetings and
// trivial acknowledgements skip extraction entirely.
func (r *responder) SimpleRespond(ctx context.Context, state *types.AgentState) {
	prompt := oracle.SimpleResponsePrompt(state.Thought, state.ConversationDigest)
	reply, err := r.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("agent: simple response generation failed: %v", err)
		reply = "Hey! What's on your mind?"
	}
	state.Response = strings.TrimSpace(reply)
}

// attachSignals appends the advisory enrichment outputs that deserve the
// user's attention right now.
func attachSignals(reply string, state *types.AgentState) string {
	var b strings.Builder
	b.WriteString(reply)

	if state.IsBlocker && state.AffectedProject != "" {
		fmt.Fprintf(&b, "\n\n⚠ This sounds like a blocker for %s (risk: %s).", state.AffectedProject, state.RiskLevel)
	}
	if state.ConsistencyNote != "" {
		fmt.Fprintf(&b, "\n\nHeads up: %s", state.ConsistencyNote)
	}
	for _, s := range state.Serendipities {
		if s.Nudge != "" {
			fmt.Fprintf(&b, "\n\n💡 %s", s.Nudge)
		}
	}
	return b.String()
}

package agent

import (
	"context"
	"testing"

	"github.com/scrypster/reverie/pkg/types"
)

func TestShouldRefineRoutingOrder(t *testing.T) {
	r := newReflector(newFakeGenerator(), newEntityResolver(newFakeGateway()))

	substantive := "a long thought with well over twenty words in it so the substantive " +
		"rule can apply when everything else passes through without a decision"

	cases := []struct {
		name       string
		state      types.AgentState
		wantRefine bool
	}{
		{
			name: "hard cap wins over adversarial critique",
			state: types.AgentState{
				Thought:              substantive,
				Critique:             "still missing a person and a project",
				ReflectionIterations: types.MaxReflectionIterations,
			},
			wantRefine: false,
		},
		{
			name: "short looks-good concludes",
			state: types.AgentState{
				Thought:              substantive,
				Critique:             "Looks good.",
				ReflectionIterations: 1,
			},
			wantRefine: false,
		},
		{
			name: "signal word triggers refine",
			state: types.AgentState{
				Thought:              "short note",
				Critique:             "The extraction overlooked the organization mentioned at the end.",
				ReflectionIterations: 1,
			},
			wantRefine: true,
		},
		{
			name: "substantive thought with thin entities forces one refine",
			state: types.AgentState{
				Thought:              substantive,
				Critique:             "Adequate extraction given the content provided here today.",
				Entities:             []types.Entity{{Name: "One", Type: "topic"}},
				ReflectionIterations: 1,
			},
			wantRefine: true,
		},
		{
			name: "thin entities do not force a second refine",
			state: types.AgentState{
				Thought:              substantive,
				Critique:             "Adequate extraction given the content provided here today.",
				Entities:             []types.Entity{{Name: "One", Type: "topic"}},
				ReflectionIterations: 2,
			},
			wantRefine: false,
		},
		{
			name: "default concludes",
			state: types.AgentState{
				Thought:              "short note",
				Critique:             "Nothing else stands out in this extraction work overall.",
				ReflectionIterations: 1,
			},
			wantRefine: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ShouldRefine(&tc.state); got != tc.wantRefine {
				t.Errorf("ShouldRefine() = %v, want %v", got, tc.wantRefine)
			}
		})
	}
}

func TestReflectSubstitutesDefaultCritiqueOnFailure(t *testing.T) {
	gen := newFakeGenerator()
	gen.failAll = true
	r := newReflector(gen, newEntityResolver(newFakeGateway()))

	state := types.NewAgentState("some thought")
	r.Reflect(context.Background(), state)

	if state.Critique != defaultCritique {
		t.Errorf("critique = %q, want default %q", state.Critique, defaultCritique)
	}
	if state.ReflectionIterations != 1 {
		t.Errorf("iterations = %d, want 1", state.ReflectionIterations)
	}
	if r.ShouldRefine(state) {
		t.Error("default critique must conclude the loop")
	}
}

func TestRefineKeepsEntitiesOnFailure(t *testing.T) {
	gen := newFakeGenerator()
	gen.failAll = true
	r := newReflector(gen, newEntityResolver(newFakeGateway()))

	state := types.NewAgentState("some thought")
	state.Entities = []types.Entity{{Name: "Atlas", Type: "project"}}
	state.Critique = "missing the person mentioned"
	r.Refine(context.Background(), state)

	if len(state.Entities) != 1 || state.Entities[0].Name != "Atlas" {
		t.Errorf("entities = %+v, want unchanged", state.Entities)
	}
}

func TestRefineMergesCritiqueEntities(t *testing.T) {
	gen := newFakeGenerator()
	gen.on("refining an entity extraction",
		`{"entities": [{"name": "Sarah", "type": "person"}, {"name": "Atlas", "type": "project"}]}`)
	r := newReflector(gen, newEntityResolver(newFakeGateway()))

	state := types.NewAgentState("some thought")
	state.Entities = []types.Entity{{Name: "Atlas", Type: "project"}}
	state.Critique = "missing Sarah, the person driving the project"
	r.Refine(context.Background(), state)

	if len(state.Entities) != 2 {
		t.Errorf("entities = %+v, want Atlas plus Sarah", state.Entities)
	}
}

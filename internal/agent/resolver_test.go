package agent

import (
	"context"
	"testing"

	"github.com/scrypster/reverie/pkg/types"
)

func TestSimilarityRatio(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"John Smith", "john smith", 1.0, 1.0},
		{"John Smith", "Jon Smith", 0.85, 0.99},
		{"John Smith", "Quarterly Report", 0.0, 0.4},
		{"", "anything", 0.0, 0.0},
	}
	for _, tc := range cases {
		got := similarityRatio(tc.a, tc.b)
		if got < tc.min || got > tc.max {
			t.Errorf("similarityRatio(%q, %q) = %.3f, want in [%.2f, %.2f]", tc.a, tc.b, got, tc.min, tc.max)
		}
	}
}

func TestResolverReusesExactCaseInsensitiveMatch(t *testing.T) {
	gw := newFakeGateway()
	gw.entities = []types.Entity{{Name: "John Smith", Type: "person"}}
	r := newEntityResolver(gw)

	resolved := r.ResolveBatch(context.Background(),
		[]types.Entity{{Name: "john smith", Type: "person"}},
		"talked to john smith about lunch")

	if len(resolved) != 1 {
		t.Fatalf("resolved = %+v, want one entity", resolved)
	}
	if resolved[0].Name != "John Smith" {
		t.Errorf("name = %q, want canonical casing John Smith", resolved[0].Name)
	}
}

func TestResolverKeepsDistinguishedNamesakeSeparate(t *testing.T) {
	gw := newFakeGateway()
	gw.entities = []types.Entity{{Name: "John Smith", Type: "person"}}
	r := newEntityResolver(gw)

	// Near-duplicate name with distinguishing context stays separate.
	resolved := r.ResolveBatch(context.Background(),
		[]types.Entity{{Name: "Jon Smith", Type: "person"}},
		"met Jon Smith from Marketing, not the engineer")

	if len(resolved) != 1 {
		t.Fatalf("resolved = %+v, want one entity", resolved)
	}
	if resolved[0].Name != "Jon Smith" {
		t.Errorf("name = %q, want new separate entity Jon Smith", resolved[0].Name)
	}
}

func TestResolverMergesNearDuplicateWithoutContext(t *testing.T) {
	gw := newFakeGateway()
	gw.entities = []types.Entity{{Name: "Kubernetes", Type: "tool"}}
	r := newEntityResolver(gw)

	resolved := r.ResolveBatch(context.Background(),
		[]types.Entity{{Name: "Kuberneted", Type: "tool"}},
		"spent the whole day fighting Kuberneted upgrades")

	if len(resolved) != 1 || resolved[0].Name != "Kubernetes" {
		t.Errorf("resolved = %+v, want merge into Kubernetes", resolved)
	}
}

func TestResolverDeduplicatesWithinBatch(t *testing.T) {
	r := newEntityResolver(newFakeGateway())

	resolved := r.ResolveBatch(context.Background(), []types.Entity{
		{Name: "Atlas", Type: "project"},
		{Name: "atlas", Type: "project"},
		{Name: "Atlas", Type: "project"},
	}, "atlas atlas atlas")

	if len(resolved) != 1 {
		t.Errorf("resolved = %+v, want a single Atlas", resolved)
	}
}

func TestResolverIsIdempotent(t *testing.T) {
	gw := newFakeGateway()
	gw.entities = []types.Entity{
		{Name: "Sarah Chen", Type: "person"},
		{Name: "Atlas", Type: "project"},
	}
	r := newEntityResolver(gw)

	input := []types.Entity{
		{Name: "Sarah Chen", Type: "person"},
		{Name: "Atlas", Type: "project"},
	}
	once := r.ResolveBatch(context.Background(), input, "Sarah Chen is on Atlas")
	twice := r.ResolveBatch(context.Background(), once, "Sarah Chen is on Atlas")

	if len(once) != len(twice) {
		t.Fatalf("resolution not idempotent: %d then %d entities", len(once), len(twice))
	}
	for i := range once {
		if once[i].Key() != twice[i].Key() {
			t.Errorf("entity %d changed identity across resolutions: %q vs %q", i, once[i].Key(), twice[i].Key())
		}
	}
}

func TestHasDistinguishingContext(t *testing.T) {
	cases := []struct {
		content string
		name    string
		want    bool
	}{
		{"John Smith from Engineering said hi", "John Smith", true},
		{"had lunch with John Smith today", "John Smith", false},
		{"the other John Smith, in Marketing", "John Smith", true},
		{"no mention at all", "John Smith", false},
	}
	for _, tc := range cases {
		if got := hasDistinguishingContext(tc.content, tc.name); got != tc.want {
			t.Errorf("hasDistinguishingContext(%q, %q) = %v, want %v", tc.content, tc.name, got, tc.want)
		}
	}
}

package types

import (
	"errors"
	"strings"
	"testing"
)

func TestNewThoughtDefaults(t *testing.T) {
	th := NewThought("some content")

	if !strings.HasPrefix(th.ID, "thought:") {
		t.Errorf("ID = %q, want thought: prefix", th.ID)
	}
	if th.EaseFactor != DefaultEaseFactor {
		t.Errorf("ease factor = %v, want default %v", th.EaseFactor, DefaultEaseFactor)
	}
	if th.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if err := th.Validate(); err != nil {
		t.Errorf("fresh thought invalid: %v", err)
	}
}

func TestThoughtValidate(t *testing.T) {
	valid := func() *Thought { return NewThought("content") }

	cases := []struct {
		name      string
		mutate    func(*Thought)
		wantField string
	}{
		{"missing id", func(t *Thought) { t.ID = "" }, "id"},
		{"empty content", func(t *Thought) { t.Content = "" }, "content"},
		{"ease below floor", func(t *Thought) { t.EaseFactor = 1.0 }, "ease_factor"},
		{"nameless entity", func(t *Thought) { t.Entities = []Entity{{Type: EntityTypePerson}} }, "entities"},
		{"confidence out of range", func(t *Thought) { t.Categories = []Category{{Name: "work", Confidence: 1.5}} }, "categories"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			th := valid()
			tc.mutate(th)
			err := th.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestEntityKeyIsCaseInsensitive(t *testing.T) {
	a := Entity{Name: "John Smith", Type: "Person"}
	b := Entity{Name: "john smith", Type: "person"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	c := Entity{Name: "John Smith", Type: "project"}
	if a.Key() == c.Key() {
		t.Error("different types share a key")
	}
}

func TestTaskRecordDone(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{TaskPending, false},
		{TaskRunning, false},
		{TaskCompleted, true},
		{TaskFailed, true},
	}
	for _, tc := range cases {
		rec := &TaskRecord{Status: tc.status}
		if rec.Done() != tc.want {
			t.Errorf("Done() with status %q = %v, want %v", tc.status, rec.Done(), tc.want)
		}
	}
}

func TestToResultProjectsTerminalFields(t *testing.T) {
	state := NewAgentState("the thought")
	state.Response = "noted"
	state.Summary = "a summary"
	state.IsBlocker = true
	state.Entities = []Entity{{Name: "Atlas", Type: EntityTypeProject}}

	res := state.ToResult()
	if res.ThoughtID != state.ThoughtID || res.Response != "noted" {
		t.Errorf("result = %+v", res)
	}
	if !res.IsBlocker || len(res.Entities) != 1 {
		t.Errorf("result lost enrichment fields: %+v", res)
	}
}

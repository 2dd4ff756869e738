package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

func TestIsQuestion(t *testing.T) {
	cases := []struct {
		thought string
		want    bool
	}{
		{"what did I say about Atlas", true},
		{"Did I ever follow up with Sam", true},
		{"remember this for later?", true},
		{"How does the review cadence work", true},
		{"met Sarah for coffee", false},
		{"shipping tomorrow", false},
	}
	for _, tc := range cases {
		if got := isQuestion(tc.thought); got != tc.want {
			t.Errorf("isQuestion(%q) = %v, want %v", tc.thought, got, tc.want)
		}
	}
}

func TestCompressHeadTailPreservesEnds(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf("line %03d with some padding text to take up space", i))
	}
	text := strings.Join(lines, "\n")

	compressed := compressHeadTail(text, 800)

	if len(compressed) >= len(text) {
		t.Fatalf("compressed length %d not shorter than original %d", len(compressed), len(text))
	}
	if !strings.Contains(compressed, compressionMarker) {
		t.Error("compressed text missing the marker")
	}
	if !strings.HasPrefix(compressed, lines[0]) {
		t.Error("first line not preserved")
	}
	if !strings.HasSuffix(compressed, lines[len(lines)-1]) {
		t.Error("last line not preserved")
	}
}

func TestCompressHeadTailLeavesShortTextAlone(t *testing.T) {
	text := "one\ntwo"
	if got := compressHeadTail(text, 10); got != text {
		t.Errorf("compressHeadTail(%q) = %q, want unchanged", text, got)
	}
}

func TestCompressHeadTailTruncatesFewLineInput(t *testing.T) {
	// Two huge lines leave no middle to drop; the budget still has to bite.
	long := strings.Repeat("x", 1500)
	text := long + "\n" + long

	got := compressHeadTail(text, maxContextChars)

	if len(got) >= len(text) {
		t.Fatalf("compressed length %d not shorter than original %d", len(got), len(text))
	}
	if len(got) > maxContextChars {
		t.Errorf("compressed length %d exceeds budget %d", len(got), maxContextChars)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text %q missing ellipsis", got[len(got)-10:])
	}
}

func TestTruncateRunesNeverSplitsARune(t *testing.T) {
	long := strings.Repeat("é", 200)

	got := truncateRunes(long, 151)

	if len(got) > 151 {
		t.Errorf("truncated length = %d, want at most 151", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated text %q is not valid UTF-8", got)
	}
	if short := "abc"; truncateRunes(short, 10) != short {
		t.Error("text within the limit was modified")
	}
}

func TestLoadSetsCompressionFlag(t *testing.T) {
	gw := newFakeGateway()
	idx := newFakeIndex()
	long := strings.Repeat("a rather long retrieved note that goes on and on. ", 20)
	for i := 0; i < 5; i++ {
		idx.results = append(idx.results, storage.SimilarResult{ID: fmt.Sprintf("t%d", i), Text: long})
	}
	loader := newContextLoader(gw, idx)

	state := types.NewAgentState("what happened with the vendor negotiations last month?")
	loader.Load(context.Background(), state)

	if state.IsQuestion != "yes" {
		t.Errorf("IsQuestion = %q, want yes", state.IsQuestion)
	}
	if !state.ContextCompressed {
		t.Error("ContextCompressed = false, want true for oversized retrieval")
	}
	if !strings.Contains(state.RetrievedNotes, compressionMarker) {
		t.Error("retrieved notes missing compression marker")
	}
	if len(state.RetrievedNotes) > maxContextChars+len(compressionMarker) {
		t.Errorf("retrieved notes length %d exceeds budget", len(state.RetrievedNotes))
	}
}

func TestLoadDegradesToEmptyContext(t *testing.T) {
	// Retrieval legs fail independently; context loading must not error.
	gw := newFakeGateway()
	loader := newContextLoader(gw, newFakeIndex())

	state := types.NewAgentState("nothing stored yet")
	loader.Load(context.Background(), state)

	if state.RetrievedNotes != "" {
		t.Errorf("RetrievedNotes = %q, want empty", state.RetrievedNotes)
	}
	if state.ReflectionIterations != 0 {
		t.Errorf("ReflectionIterations = %d, want 0", state.ReflectionIterations)
	}
}

package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `identity:
  name: Alex
  role: staff engineer
projects:
  - name: Atlas
    status: active
    priority: high
  - name: Horizon
people:
  - name: Sarah
    relation: colleague
preferences:
  tone: direct
  briefing_hour: 8
learned_facts:
  - prefers written updates
`

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadParsesProfile(t *testing.T) {
	svc := NewService(writeProfile(t, sampleYAML))

	p, err := svc.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Identity.Name != "Alex" || p.Identity.Role != "staff engineer" {
		t.Errorf("identity = %+v", p.Identity)
	}
	if got := p.ProjectNames(); len(got) != 2 || got[0] != "Atlas" {
		t.Errorf("ProjectNames() = %v", got)
	}
	if got := p.PeopleNames(); len(got) != 1 || got[0] != "Sarah" {
		t.Errorf("PeopleNames() = %v", got)
	}
	if p.Preferences.BriefingHour != 8 {
		t.Errorf("briefing hour = %d", p.Preferences.BriefingHour)
	}
}

func TestLoadMissingFileIsEmptyProfile(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "absent.yaml"))

	p, err := svc.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want missing file mapped to empty profile", err)
	}
	if p.Identity.Name != "" || len(p.Projects) != 0 {
		t.Errorf("profile = %+v, want empty", p)
	}
	if p.ContextPrompt() != "" {
		t.Errorf("ContextPrompt() = %q, want empty for empty profile", p.ContextPrompt())
	}
}

func TestLoadCachesUntilInvalidated(t *testing.T) {
	path := writeProfile(t, sampleYAML)
	svc := NewService(path)

	if _, err := svc.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	edited := strings.Replace(sampleYAML, "name: Alex", "name: Sam", 1)
	if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}

	p, err := svc.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Identity.Name != "Alex" {
		t.Errorf("name = %q, want cached Alex before invalidation", p.Identity.Name)
	}

	svc.Invalidate()
	p, err = svc.Load()
	if err != nil {
		t.Fatalf("Load() after Invalidate error = %v", err)
	}
	if p.Identity.Name != "Sam" {
		t.Errorf("name = %q, want re-read Sam after invalidation", p.Identity.Name)
	}
}

func TestContextPromptRendersDeclaredState(t *testing.T) {
	svc := NewService(writeProfile(t, sampleYAML))
	p, err := svc.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	prompt := p.ContextPrompt()
	for _, want := range []string{
		"The user is Alex (staff engineer).",
		"Active projects: Atlas, Horizon.",
		"People in their world: Sarah.",
		"Preferred tone: direct.",
		"Known facts: prefers written updates.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("ContextPrompt() = %q, missing %q", prompt, want)
		}
	}
}

func TestAddLearnedFactDedupesAndPersists(t *testing.T) {
	path := writeProfile(t, sampleYAML)
	svc := NewService(path)

	if err := svc.AddLearnedFact("works late on Tuesdays"); err != nil {
		t.Fatalf("AddLearnedFact() error = %v", err)
	}
	// Case-insensitive duplicate is a no-op.
	if err := svc.AddLearnedFact("Works Late On Tuesdays"); err != nil {
		t.Fatalf("AddLearnedFact() duplicate error = %v", err)
	}
	if err := svc.AddLearnedFact("   "); err != nil {
		t.Fatalf("AddLearnedFact() blank error = %v", err)
	}

	fresh := NewService(path)
	p, err := fresh.Load()
	if err != nil {
		t.Fatalf("Load() from rewritten file error = %v", err)
	}
	if len(p.LearnedFacts) != 2 {
		t.Fatalf("LearnedFacts = %v, want original plus one new fact", p.LearnedFacts)
	}
	if p.LearnedFacts[1] != "works late on Tuesdays" {
		t.Errorf("new fact = %q", p.LearnedFacts[1])
	}
}

func TestAddLearnedFactCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	svc := NewService(path)

	if err := svc.AddLearnedFact("keeps a reading list"); err != nil {
		t.Fatalf("AddLearnedFact() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profile file not written: %v", err)
	}

	p, err := svc.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(p.LearnedFacts) != 1 || p.LearnedFacts[0] != "keeps a reading list" {
		t.Errorf("LearnedFacts = %v", p.LearnedFacts)
	}
}

// Package profile loads the YAML user profile: who the user is, what they
// are working on, who matters to them, and how they like to be spoken to.
// The profile feeds the responder and the enrichment analyzers; it is the
// one piece of state the user edits by hand, so it is cached with a short
// TTL and invalidated by a file watcher.
package profile

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// UserProfile is the on-disk YAML structure.
type UserProfile struct {
	Identity struct {
		Name string `yaml:"name"`
		Role string `yaml:"role,omitempty"`
	} `yaml:"identity"`

	Projects []Project `yaml:"projects,omitempty"`
	People   []Person  `yaml:"people,omitempty"`

	Preferences struct {
		Tone         string `yaml:"tone,omitempty"` // e.g. "direct", "warm"
		BriefingHour int    `yaml:"briefing_hour,omitempty"`
	} `yaml:"preferences"`

	LearnedFacts []string `yaml:"learned_facts,omitempty"`
}

// Project is an active effort the user has declared.
type Project struct {
	Name     string `yaml:"name"`
	Status   string `yaml:"status,omitempty"`
	Priority string `yaml:"priority,omitempty"`
}

// Person is someone the user has declared as part of their world.
type Person struct {
	Name     string `yaml:"name"`
	Relation string `yaml:"relation,omitempty"`
	Context  string `yaml:"context,omitempty"`
}

// cacheTTL bounds staleness when the watcher misses an edit (e.g. the file
// was replaced via rename on a filesystem without rename events).
const cacheTTL = time.Minute

// Service loads and caches the profile.
type Service struct {
	path string

	mu       sync.RWMutex
	cached   *UserProfile
	loadedAt time.Time
}

// NewService creates a profile service for the given YAML path. A missing
// file is not an error; the profile is simply empty until one is written.
func NewService(path string) *Service {
	return &Service{path: path}
}

// Load returns the current profile, re-reading the file only when the cache
// has expired or been invalidated.
func (s *Service) Load() (*UserProfile, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.loadedAt) < cacheTTL {
		defer s.mu.RUnlock()
		return s.cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && time.Since(s.loadedAt) < cacheTTL {
		return s.cached, nil
	}

	profile, err := readProfile(s.path)
	if err != nil {
		return nil, err
	}
	s.cached = profile
	s.loadedAt = time.Now()
	return profile, nil
}

// Invalidate drops the cache so the next Load re-reads the file.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

// AddLearnedFact appends a fact to the profile and writes it back. Used by
// background synthesis when it learns something durable about the user.
func (s *Service) AddLearnedFact(fact string) error {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := readProfile(s.path)
	if err != nil {
		return err
	}
	for _, existing := range profile.LearnedFacts {
		if strings.EqualFold(existing, fact) {
			return nil
		}
	}
	profile.LearnedFacts = append(profile.LearnedFacts, fact)

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	s.cached = profile
	s.loadedAt = time.Now()
	return nil
}

// ProjectNames returns the declared project names.
func (p *UserProfile) ProjectNames() []string {
	names := make([]string, 0, len(p.Projects))
	for _, proj := range p.Projects {
		names = append(names, proj.Name)
	}
	return names
}

// PeopleNames returns the declared people names.
func (p *UserProfile) PeopleNames() []string {
	names := make([]string, 0, len(p.People))
	for _, person := range p.People {
		names = append(names, person.Name)
	}
	return names
}

// ContextPrompt renders the profile as a short preamble for the responder.
// Returns empty when there is nothing useful to say.
func (p *UserProfile) ContextPrompt() string {
	var b strings.Builder
	if p.Identity.Name != "" {
		fmt.Fprintf(&b, "The user is %s", p.Identity.Name)
		if p.Identity.Role != "" {
			fmt.Fprintf(&b, " (%s)", p.Identity.Role)
		}
		b.WriteString(". ")
	}
	if len(p.Projects) > 0 {
		fmt.Fprintf(&b, "Active projects: %s. ", strings.Join(p.ProjectNames(), ", "))
	}
	if len(p.People) > 0 {
		fmt.Fprintf(&b, "People in their world: %s. ", strings.Join(p.PeopleNames(), ", "))
	}
	if p.Preferences.Tone != "" {
		fmt.Fprintf(&b, "Preferred tone: %s. ", p.Preferences.Tone)
	}
	if len(p.LearnedFacts) > 0 {
		fmt.Fprintf(&b, "Known facts: %s.", strings.Join(p.LearnedFacts, "; "))
	}
	return strings.TrimSpace(b.String())
}

// readProfile parses the YAML file, mapping a missing file to an empty
// profile.
func readProfile(path string) (*UserProfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &UserProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile UserProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

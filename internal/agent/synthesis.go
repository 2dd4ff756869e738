package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

// synthesizer rebuilds person and project profiles from the accumulated
// notes about them, and records durable facts about the user on the YAML
// profile as a side effect. It runs on background workers after a thought is
// saved; its outputs lag thought ingestion on purpose.
type synthesizer struct {
	gateway   storage.Gateway
	generator oracle.TextGenerator
	profiles  *profile.Service
}

func newSynthesizer(gateway storage.Gateway, generator oracle.TextGenerator, profiles *profile.Service) *synthesizer {
	return &synthesizer{gateway: gateway, generator: generator, profiles: profiles}
}

// Synthesize refreshes the profile of every person and project entity on
// the saved thought. Per-entity failures are logged and skipped; the first
// error is returned so the task registry records it.
func (s *synthesizer) Synthesize(ctx context.Context, thought *types.Thought) error {
	var firstErr error
	for _, entity := range thought.Entities {
		var err error
		switch entity.Type {
		case types.EntityTypePerson:
			err = s.synthesizePerson(ctx, entity.Name)
		case types.EntityTypeProject:
			err = s.synthesizeProject(ctx, entity.Name)
		default:
			continue
		}
		if err != nil {
			log.Printf("agent: synthesis for %s %q failed: %v", entity.Type, entity.Name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *synthesizer) synthesizePerson(ctx context.Context, name string) error {
	notes, err := s.notesAbout(ctx, name)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}

	reply, err := s.generator.Complete(ctx, oracle.PersonSynthesisPrompt(name, notes))
	if err != nil {
		return fmt.Errorf("person synthesis generation: %w", err)
	}
	parsed, err := oracle.ParsePersonProfile(reply)
	if err != nil {
		return fmt.Errorf("person synthesis parse: %w", err)
	}

	err = s.gateway.SavePersonProfile(ctx, &types.PersonProfile{
		Name:        name,
		Summary:     parsed.Summary,
		LastContact: parsed.LastContact,
		OpenLoops:   parsed.OpenLoops,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}

	if parsed.UserFact != "" {
		if err := s.profiles.AddLearnedFact(parsed.UserFact); err != nil {
			// The person profile itself saved; losing the fact is not fatal.
			log.Printf("agent: failed to record learned fact: %v", err)
		}
	}
	return nil
}

func (s *synthesizer) synthesizeProject(ctx context.Context, name string) error {
	notes, err := s.notesAbout(ctx, name)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}

	reply, err := s.generator.Complete(ctx, oracle.ProjectSynthesisPrompt(name, notes))
	if err != nil {
		return fmt.Errorf("project synthesis generation: %w", err)
	}
	parsed, err := oracle.ParseProjectProfile(reply)
	if err != nil {
		return fmt.Errorf("project synthesis parse: %w", err)
	}

	return s.gateway.SaveProjectProfile(ctx, &types.ProjectProfile{
		Name:      name,
		Status:    parsed.Status,
		Blockers:  parsed.Blockers,
		NextSteps: parsed.NextSteps,
		UpdatedAt: time.Now(),
	})
}

// notesAbout collects the recent raw notes mentioning an entity, newest
// first, capped for prompt size.
func (s *synthesizer) notesAbout(ctx context.Context, name string) ([]string, error) {
	thoughts, err := s.gateway.FindByEntity(ctx, name, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes about %q: %w", name, err)
	}
	notes := make([]string, 0, len(thoughts))
	for _, t := range thoughts {
		notes = append(notes, t.Content)
	}
	return notes, nil
}

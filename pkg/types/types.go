// Package types defines the core data structures for the Reverie knowledge
// agent: thoughts, extracted entities, categories, action items, social
// nudges, and the pipeline state threaded through one thought's processing.
package types

// Entity type constants. The set is open (the extractor may emit anything),
// but these are the conventional types the rest of the system keys on.
const (
	EntityTypePerson       = "person"
	EntityTypeProject      = "project"
	EntityTypeTopic        = "topic"
	EntityTypeOrganization = "organization"
	EntityTypeTool         = "tool"
	EntityTypeGoal         = "goal"
	EntityTypePlace        = "place"
	EntityTypeConcept      = "concept"
	EntityTypeSkill        = "skill"
)

// KnownEntityTypes lists the conventional entity types.
var KnownEntityTypes = []string{
	EntityTypePerson,
	EntityTypeProject,
	EntityTypeTopic,
	EntityTypeOrganization,
	EntityTypeTool,
	EntityTypeGoal,
	EntityTypePlace,
	EntityTypeConcept,
	EntityTypeSkill,
}

// IsKnownEntityType reports whether the given type is one of the
// conventional entity types. Unknown types are still stored as-is.
func IsKnownEntityType(entityType string) bool {
	for _, known := range KnownEntityTypes {
		if known == entityType {
			return true
		}
	}
	return false
}

// Category vocabulary. Thoughts carry zero or more of these with a
// confidence score; the vocabulary is small and fixed.
const (
	CategoryWork          = "work"
	CategoryPersonal      = "personal"
	CategoryHealth        = "health"
	CategoryLearning      = "learning"
	CategoryRelationships = "relationships"
	CategoryFinance       = "finance"
	CategoryIdeas         = "ideas"
	CategoryPlanning      = "planning"
)

// ValidCategories is the fixed category vocabulary.
var ValidCategories = []string{
	CategoryWork,
	CategoryPersonal,
	CategoryHealth,
	CategoryLearning,
	CategoryRelationships,
	CategoryFinance,
	CategoryIdeas,
	CategoryPlanning,
}

// IsValidCategory checks a category name against the fixed vocabulary.
func IsValidCategory(name string) bool {
	for _, valid := range ValidCategories {
		if valid == name {
			return true
		}
	}
	return false
}

// PARA classification buckets (Projects/Areas/Resources/Archive).
const (
	PARAProject  = "project"
	PARAArea     = "area"
	PARAResource = "resource"
	PARAArchive  = "archive"
)

// Action item status constants.
const (
	ActionPending = "pending"
	ActionDone    = "done"
)

// Risk level constants produced by the blocker analyzer.
const (
	RiskNone   = "none"
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Intent constants produced by the intent classifier. They select the
// register of the responder instruction, nothing more.
const (
	IntentSimple    = "simple"
	IntentUtility   = "utility"
	IntentStrategic = "strategic"
)

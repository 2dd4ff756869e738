package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/pkg/types"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := NewGateway(filepath.Join(t.TempDir(), "reverie.db"))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func storedThought(content string) *types.Thought {
	th := types.NewThought(content)
	th.Summary = "summary of " + content
	return th
}

func TestUpsertAndGetThoughtRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	th := storedThought("Met Sarah to talk about Atlas")
	th.IsBlocker = true
	th.AffectedProject = "Atlas"
	th.PARABucket = types.PARAProject
	th.Salience = 0.4
	th.Entities = []types.Entity{
		{Name: "Sarah", Type: types.EntityTypePerson},
		{Name: "Atlas", Type: types.EntityTypeProject, Description: "migration project"},
	}
	th.Categories = []types.Category{{Name: "work", Confidence: 0.9}}
	th.Actions = []types.ActionItem{{Description: "send notes", Urgency: 3, Status: types.ActionPending, Deadline: "2025-06-05"}}
	th.Nudges = []types.SocialNudge{{PersonName: "Sarah", Reason: "promised follow-up", Suggestion: "share the doc"}}

	if err := gw.UpsertThought(ctx, th); err != nil {
		t.Fatalf("UpsertThought() error = %v", err)
	}

	got, err := gw.GetThought(ctx, th.ID)
	if err != nil {
		t.Fatalf("GetThought() error = %v", err)
	}
	if got.Content != th.Content || !got.IsBlocker || got.AffectedProject != "Atlas" {
		t.Errorf("round trip lost thought fields: %+v", got)
	}
	if len(got.Entities) != 2 || got.Entities[0].Name != "Sarah" {
		t.Errorf("entities = %+v, want Sarah then Atlas in mention order", got.Entities)
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "work" {
		t.Errorf("categories = %+v", got.Categories)
	}
	if len(got.Actions) != 1 || got.Actions[0].Deadline != "2025-06-05" {
		t.Errorf("actions = %+v", got.Actions)
	}
	if len(got.Nudges) != 1 || got.Nudges[0].PersonName != "Sarah" {
		t.Errorf("nudges = %+v", got.Nudges)
	}
}

func TestUpsertThoughtReplacesAttachments(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	th := storedThought("first version")
	th.Actions = []types.ActionItem{{Description: "old action", Urgency: 2, Status: types.ActionPending}}
	if err := gw.UpsertThought(ctx, th); err != nil {
		t.Fatalf("UpsertThought() error = %v", err)
	}

	th.Content = "second version"
	th.Actions = []types.ActionItem{{Description: "new action", Urgency: 4, Status: types.ActionPending}}
	if err := gw.UpsertThought(ctx, th); err != nil {
		t.Fatalf("UpsertThought() rewrite error = %v", err)
	}

	got, err := gw.GetThought(ctx, th.ID)
	if err != nil {
		t.Fatalf("GetThought() error = %v", err)
	}
	if got.Content != "second version" {
		t.Errorf("content = %q, want rewrite to win", got.Content)
	}
	if len(got.Actions) != 1 || got.Actions[0].Description != "new action" {
		t.Errorf("actions = %+v, want old attachment replaced", got.Actions)
	}
}

func TestGetThoughtNotFound(t *testing.T) {
	gw := newTestGateway(t)
	if _, err := gw.GetThought(context.Background(), "missing"); err != storage.ErrNotFound {
		t.Errorf("GetThought() error = %v, want ErrNotFound", err)
	}
}

func TestMergeEntityFirstCasingWins(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	first, err := gw.MergeEntity(ctx, types.Entity{Name: "John Smith", Type: types.EntityTypePerson})
	if err != nil {
		t.Fatalf("MergeEntity() error = %v", err)
	}
	second, err := gw.MergeEntity(ctx, types.Entity{Name: "john smith", Type: "Person", Description: "engineer"})
	if err != nil {
		t.Fatalf("MergeEntity() second mention error = %v", err)
	}

	if second.Name != first.Name {
		t.Errorf("canonical name = %q, want first mention casing %q", second.Name, first.Name)
	}
	if second.Description != "engineer" {
		t.Errorf("description = %q, want later mention to fill the blank", second.Description)
	}

	third, err := gw.MergeEntity(ctx, types.Entity{Name: "JOHN SMITH", Type: "person", Description: "someone else"})
	if err != nil {
		t.Fatalf("MergeEntity() third mention error = %v", err)
	}
	if third.Description != "engineer" {
		t.Errorf("description = %q, want existing description preserved", third.Description)
	}

	entities, err := gw.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities() error = %v", err)
	}
	if len(entities) != 1 {
		t.Errorf("entities = %+v, want one canonical record", entities)
	}
}

func TestFindByEntityNewestFirst(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	older := storedThought("started Atlas planning")
	older.Timestamp = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	older.Entities = []types.Entity{{Name: "Atlas", Type: types.EntityTypeProject}}
	newer := storedThought("Atlas kickoff happened")
	newer.Timestamp = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	newer.Entities = []types.Entity{{Name: "atlas", Type: types.EntityTypeProject}}

	for _, th := range []*types.Thought{older, newer} {
		if err := gw.UpsertThought(ctx, th); err != nil {
			t.Fatalf("UpsertThought() error = %v", err)
		}
	}

	got, err := gw.FindByEntity(ctx, "ATLAS", 10)
	if err != nil {
		t.Fatalf("FindByEntity() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID {
		t.Errorf("FindByEntity() = %d thoughts, first %q, want newest first", len(got), got[0].ID)
	}
}

func TestSearchContentHandlesOperatorCharacters(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	th := storedThought("The database migration is blocked on approvals")
	if err := gw.UpsertThought(ctx, th); err != nil {
		t.Fatalf("UpsertThought() error = %v", err)
	}

	got, err := gw.SearchContent(ctx, "migration blocked", 10)
	if err != nil {
		t.Fatalf("SearchContent() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != th.ID {
		t.Errorf("SearchContent() = %+v, want the stored thought", got)
	}

	// FTS5 operator syntax in user input must not error out.
	if _, err := gw.SearchContent(ctx, `migration AND "blocked OR (NOT`, 10); err != nil {
		t.Errorf("SearchContent() with operator noise error = %v", err)
	}

	got, err = gw.SearchContent(ctx, "unrelated", 10)
	if err != nil {
		t.Fatalf("SearchContent() miss error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("SearchContent() miss = %+v, want empty", got)
	}
}

func TestStructuralHolesRanksBySharedCount(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	// Sam co-occurs with woodworking twice and with jazz once. Neither is
	// in the current thought's entity set, so both are holes for "Sam".
	link := func(content string, names ...string) {
		th := storedThought(content)
		for _, n := range names {
			th.Entities = append(th.Entities, types.Entity{Name: n, Type: types.EntityTypeTopic})
		}
		if err := gw.UpsertThought(ctx, th); err != nil {
			t.Fatalf("UpsertThought() error = %v", err)
		}
	}
	link("Sam showed me his workbench", "Sam", "woodworking")
	link("Sam is building a table", "Sam", "woodworking")
	link("Sam mentioned a jazz show", "Sam", "jazz")

	holes, err := gw.StructuralHoles(ctx, []string{"sam"}, 10)
	if err != nil {
		t.Fatalf("StructuralHoles() error = %v", err)
	}
	if len(holes) != 2 {
		t.Fatalf("holes = %+v, want woodworking and jazz", holes)
	}
	if holes[0].DisconnectedEntity != "woodworking" || holes[0].SharedCount != 2 {
		t.Errorf("top hole = %+v, want woodworking with 2 shared thoughts", holes[0])
	}
	if holes[0].ConnectedVia != "Sam" {
		t.Errorf("connected via = %q, want Sam", holes[0].ConnectedVia)
	}

	none, err := gw.StructuralHoles(ctx, nil, 10)
	if err != nil || none != nil {
		t.Errorf("StructuralHoles(nil) = %v, %v, want empty and no error", none, err)
	}
}

func TestConversationDigestReadsOldestFirst(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	for _, msg := range []struct{ role, content string }{
		{"user", "first"},
		{"assistant", "second"},
		{"user", "third"},
	} {
		if err := gw.AppendConversationMessage(ctx, msg.role, msg.content, ""); err != nil {
			t.Fatalf("AppendConversationMessage() error = %v", err)
		}
	}

	digest, err := gw.GetConversationDigest(ctx, 2)
	if err != nil {
		t.Fatalf("GetConversationDigest() error = %v", err)
	}
	want := "assistant: second\nuser: third"
	if digest != want {
		t.Errorf("digest = %q, want last two messages oldest first %q", digest, want)
	}

	if err := gw.AppendConversationMessage(ctx, "", "content", ""); err == nil {
		t.Error("AppendConversationMessage() with empty role = nil error, want rejection")
	}
}

func TestUpdateReviewAndResurfaceQueue(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	overdue := storedThought("overdue thought")
	overdue.Timestamp = time.Now().UTC().Add(-72 * time.Hour)
	fresh := storedThought("fresh thought")
	fresh.Timestamp = time.Now().UTC()
	for _, th := range []*types.Thought{overdue, fresh} {
		if err := gw.UpsertThought(ctx, th); err != nil {
			t.Fatalf("UpsertThought() error = %v", err)
		}
	}

	due, err := gw.ResurfaceQueue(ctx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("ResurfaceQueue() error = %v", err)
	}
	if len(due) != 1 || due[0].ID != overdue.ID {
		t.Fatalf("ResurfaceQueue() = %+v, want only the overdue thought", due)
	}

	reviewedAt := time.Now().UTC()
	if err := gw.UpdateReview(ctx, overdue.ID, 1, 2.6, reviewedAt); err != nil {
		t.Fatalf("UpdateReview() error = %v", err)
	}

	got, err := gw.GetThought(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("GetThought() error = %v", err)
	}
	if got.ReviewCount != 1 || got.EaseFactor != 2.6 || got.LastReviewed == nil {
		t.Errorf("review state = count %d ease %v reviewed %v", got.ReviewCount, got.EaseFactor, got.LastReviewed)
	}

	due, err = gw.ResurfaceQueue(ctx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("ResurfaceQueue() after review error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("ResurfaceQueue() after review = %+v, want empty", due)
	}

	if err := gw.UpdateReview(ctx, "missing", 1, 2.5, reviewedAt); err != storage.ErrNotFound {
		t.Errorf("UpdateReview() for missing thought = %v, want ErrNotFound", err)
	}
}

func TestPersonProfileRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	p := &types.PersonProfile{
		Name:        "Sarah",
		Summary:     "design lead on Atlas",
		LastContact: "2025-06-01",
		OpenLoops:   []string{"send the doc"},
		UpdatedAt:   time.Now().UTC(),
	}
	if err := gw.SavePersonProfile(ctx, p); err != nil {
		t.Fatalf("SavePersonProfile() error = %v", err)
	}

	p.Summary = "design lead, now on Horizon"
	if err := gw.SavePersonProfile(ctx, p); err != nil {
		t.Fatalf("SavePersonProfile() update error = %v", err)
	}

	got, err := gw.GetPersonProfile(ctx, "sarah")
	if err != nil {
		t.Fatalf("GetPersonProfile() error = %v", err)
	}
	if got.Summary != "design lead, now on Horizon" || len(got.OpenLoops) != 1 {
		t.Errorf("profile = %+v, want updated summary and open loops", got)
	}

	if _, err := gw.GetPersonProfile(ctx, "nobody"); err != storage.ErrNotFound {
		t.Errorf("GetPersonProfile() for missing = %v, want ErrNotFound", err)
	}
}

func TestStatsCountsPendingActions(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	th := storedThought("stats fixture")
	th.Entities = []types.Entity{{Name: "Atlas", Type: types.EntityTypeProject}}
	th.Actions = []types.ActionItem{
		{Description: "pending one", Urgency: 3, Status: types.ActionPending},
		{Description: "done one", Urgency: 3, Status: types.ActionDone},
	}
	if err := gw.UpsertThought(ctx, th); err != nil {
		t.Fatalf("UpsertThought() error = %v", err)
	}
	if err := gw.AppendConversationMessage(ctx, "user", "stats fixture", th.ID); err != nil {
		t.Fatalf("AppendConversationMessage() error = %v", err)
	}

	stats, err := gw.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Thoughts != 1 || stats.Entities != 1 || stats.Conversations != 1 || stats.PendingTasks != 1 {
		t.Errorf("stats = %+v, want 1/1/1/1", stats)
	}
}

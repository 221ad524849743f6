// Copyright 2024-2026 Aiku AI

package timeline

import (
	"testing"

	"github.com/aiku/fedikit/pkg/fedi"
)

func st(id string) *fedi.Status {
	return &fedi.Status{ID: id, Content: "post " + id}
}

func ids(seq []*fedi.Status) []string {
	out := make([]string, len(seq))
	for i, s := range seq {
		out[i] = s.ID
	}
	return out
}

func equalIDs(t *testing.T, got []*fedi.Status, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("sequence ids: got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("sequence ids: got %v, want %v", gotIDs, want)
		}
	}
}

func TestMergeOrPrependPrependsNew(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("2"), st("1")}
	seq = MergeOrPrepend(seq, st("3"))
	equalIDs(t, seq, "3", "2", "1")
}

func TestMergeOrPrependReplacesInPlace(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("3"), st("2"), st("1")}
	updated := st("2")
	updated.Content = "edited"
	seq = MergeOrPrepend(seq, updated)
	equalIDs(t, seq, "3", "2", "1")
	if seq[1].Content != "edited" {
		t.Errorf("entry 2 content: got %q, want %q", seq[1].Content, "edited")
	}
}

func TestReplaceMissingIsNoop(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("2"), st("1")}
	seq = Replace(seq, st("9"))
	equalIDs(t, seq, "2", "1")
}

func TestReplaceIdempotent(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("3"), st("2"), st("1")}
	updated := st("2")
	updated.Favourited = true
	once := Replace(seq, updated)
	twice := Replace(once, updated)
	equalIDs(t, twice, "3", "2", "1")
	if !twice[1].Favourited {
		t.Error("entry 2 should keep the replacement after two applies")
	}
	if twice[0] != once[0] || twice[2] != once[2] {
		t.Error("unrelated entries must not change")
	}
}

func TestReplaceUpdatesEmbeddedBoost(t *testing.T) {
	t.Parallel()
	inner := st("inner")
	wrapper := st("wrap")
	wrapper.Reblog = inner
	wrapper.Booster = &fedi.Identity{ID: "booster"}
	seq := []*fedi.Status{wrapper, st("1")}

	updated := st("inner")
	updated.FavouritesCount = 7
	seq = Replace(seq, updated)

	equalIDs(t, seq, "wrap", "1")
	if seq[0].Reblog.FavouritesCount != 7 {
		t.Errorf("embedded boost count: got %d, want 7", seq[0].Reblog.FavouritesCount)
	}
	if seq[0].Booster == nil || seq[0].Booster.ID != "booster" {
		t.Error("outer wrapper identity must be preserved")
	}
}

func TestAppendDedupedBounds(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("3"), st("2")}
	page := []*fedi.Status{st("2"), st("1"), st("0"), st("1")}
	out := AppendDeduped(seq, page)

	if len(out) > 2+len(page) {
		t.Fatalf("length grew by more than |page|: %d", len(out))
	}
	seen := map[string]bool{}
	for _, s := range out {
		if seen[s.ID] {
			t.Fatalf("duplicate id %q after AppendDeduped", s.ID)
		}
		seen[s.ID] = true
	}
	equalIDs(t, out, "3", "2", "1", "0")
}

func TestRemoveByID(t *testing.T) {
	t.Parallel()
	seq := []*fedi.Status{st("3"), st("2"), st("1")}
	seq = RemoveByID(seq, "2")
	equalIDs(t, seq, "3", "1")
	seq = RemoveByID(seq, "missing")
	equalIDs(t, seq, "3", "1")
}

func TestFeedApplyEvents(t *testing.T) {
	t.Parallel()
	f := NewFeed()
	f.AppendPage([]*fedi.Status{st("2"), st("1")})
	f.Apply(fedi.StreamingEvent{Kind: fedi.EventUpdate, Status: st("3")})
	f.Apply(fedi.StreamingEvent{Kind: fedi.EventDelete, DeleteID: "1"})
	equalIDs(t, f.Snapshot(), "3", "2")
	if f.Len() != 2 {
		t.Errorf("Len: got %d, want 2", f.Len())
	}
}

func TestFanoutRegisterAndCancel(t *testing.T) {
	t.Parallel()
	fan := NewFanout()
	a, b := NewFeed(), NewFeed()
	cancelA := fan.Register(a.Apply)
	fan.Register(b.Apply)

	fan.Broadcast(fedi.StreamingEvent{Kind: fedi.EventUpdate, Status: st("1")})
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("both feeds should receive broadcast: %d, %d", a.Len(), b.Len())
	}

	cancelA()
	cancelA() // second cancel must be harmless
	fan.Broadcast(fedi.StreamingEvent{Kind: fedi.EventUpdate, Status: st("2")})
	if a.Len() != 1 {
		t.Errorf("cancelled feed got event: len %d", a.Len())
	}
	if b.Len() != 2 {
		t.Errorf("active feed missed event: len %d", b.Len())
	}
}

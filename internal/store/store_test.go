package store

import (
	"testing"
	"time"

	"github.com/cppdeck/cppdeck/internal/deck"
	"github.com/cppdeck/cppdeck/internal/model"
	"github.com/cppdeck/cppdeck/internal/progress"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadProgressEmpty(t *testing.T) {
	s := newTestStore(t)

	states, err := s.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if states != nil {
		t.Errorf("expected nil states on first run, got %v", states)
	}
}

func TestSaveAndLoadProgress(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)

	in := []model.ChapterState{
		{
			Number: 3,
			Cards: []model.CardState{
				{ID: "a", IsReviewed: true, AttemptCount: 2, LastReviewDate: &now},
				{ID: "b", IsFavorite: true},
			},
		},
	}
	if err := s.SaveProgress(in); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	out, err := s.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(out) != 1 || len(out[0].Cards) != 2 {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if out[0].Number != 3 {
		t.Errorf("expected chapter number 3, got %d", out[0].Number)
	}
	if !out[0].Cards[0].IsReviewed || out[0].Cards[0].AttemptCount != 2 {
		t.Errorf("card a state lost: %+v", out[0].Cards[0])
	}
	if out[0].Cards[0].LastReviewDate == nil || !out[0].Cards[0].LastReviewDate.Equal(now) {
		t.Error("last review date lost")
	}
	if !out[0].Cards[1].IsFavorite {
		t.Error("card b favorite flag lost")
	}

	// A later save replaces the blob wholesale.
	if err := s.SaveProgress([]model.ChapterState{{Number: 9}}); err != nil {
		t.Fatalf("second SaveProgress: %v", err)
	}
	out, err = s.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(out) != 1 || out[0].Number != 9 {
		t.Errorf("blob not replaced: %+v", out)
	}
}

func TestLoadProgressCorrupt(t *testing.T) {
	s := newTestStore(t)

	// Corruption degrades to "no prior progress", never an error.
	if err := s.set(progressKey, "{not json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	states, err := s.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if states != nil {
		t.Errorf("expected nil states for corrupt blob, got %v", states)
	}
}

func TestDarkMode(t *testing.T) {
	s := newTestStore(t)

	dark, err := s.DarkMode()
	if err != nil {
		t.Fatalf("DarkMode: %v", err)
	}
	if dark {
		t.Error("expected dark mode false when unset")
	}

	if err := s.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	dark, err = s.DarkMode()
	if err != nil {
		t.Fatalf("DarkMode: %v", err)
	}
	if !dark {
		t.Error("expected dark mode true")
	}

	if err := s.SetDarkMode(false); err != nil {
		t.Fatalf("SetDarkMode false: %v", err)
	}
	dark, _ = s.DarkMode()
	if dark {
		t.Error("expected dark mode false after unsetting")
	}
}

// TestRoundTrip exercises the full persistence cycle: mutate a progress
// store backed by this gateway, then rebuild a fresh default deck, apply
// the loaded state and compare card-by-card.
func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)

	pool := []model.Question{
		{ID: 1, Chapter: 2, Text: "Q1", Options: map[string]string{"A": "a", "B": "b"}, CorrectKey: "A"},
		{ID: 2, Chapter: 2, Text: "Q2", Options: map[string]string{"A": "a", "B": "b"}, CorrectKey: "B"},
		{ID: 3, Chapter: 5, Text: "Q3", Options: map[string]string{"A": "a", "B": "b"}, CorrectKey: "A"},
	}

	first := progress.New(deck.Build(pool), s)
	idx2, ok := first.IndexOfChapter(2)
	if !ok {
		t.Fatal("chapter 2 not found")
	}
	idx5, ok := first.IndexOfChapter(5)
	if !ok {
		t.Fatal("chapter 5 not found")
	}

	cardID1 := deck.CardID(1)
	cardID3 := deck.CardID(3)

	if err := first.MarkReviewed(idx2, cardID1); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	if err := first.MarkReviewed(idx2, cardID1); err != nil {
		t.Fatalf("MarkReviewed again: %v", err)
	}
	if err := first.MarkMastered(idx5, cardID3, true); err != nil {
		t.Fatalf("MarkMastered: %v", err)
	}
	if _, err := first.ToggleFavorite(idx5, cardID3); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}

	// Fresh deck from the same bank, rehydrated from the store.
	rebuilt := deck.Build(pool)
	states, err := s.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	progress.Apply(rebuilt, states)
	second := progress.New(rebuilt, nil)

	want := first.Chapters()
	got := second.Chapters()
	if len(got) != len(want) {
		t.Fatalf("chapter count mismatch: %d != %d", len(got), len(want))
	}
	for i := range want {
		// Titles and content come from the bank, not the blob.
		if got[i].Title != want[i].Title {
			t.Errorf("chapter %d title mismatch: %q != %q", got[i].Number, got[i].Title, want[i].Title)
		}
		for j := range want[i].Cards {
			w, g := want[i].Cards[j], got[i].Cards[j]
			if g.ID != w.ID {
				t.Errorf("card order changed: %s != %s", g.ID, w.ID)
			}
			if g.IsReviewed != w.IsReviewed || g.IsMastered != w.IsMastered ||
				g.IsFavorite != w.IsFavorite || g.AttemptCount != w.AttemptCount {
				t.Errorf("card %s state mismatch after round trip: %+v != %+v", g.ID, g, w)
			}
			if g.Question != w.Question || g.Answer != w.Answer {
				t.Errorf("card %s content changed by round trip", g.ID)
			}
		}
	}
}

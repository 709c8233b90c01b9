package deck

import (
	"testing"

	"github.com/cppdeck/cppdeck/internal/model"
)

func testPool() []model.Question {
	return []model.Question{
		{ID: 1, Chapter: 5, Text: "Q1", Options: map[string]string{"B": "beta", "A": "alpha"}, CorrectKey: "B", Explanation: "e1"},
		{ID: 2, Chapter: 1, Text: "Q2", Options: map[string]string{"A": "yes", "B": "no"}, CorrectKey: "A"},
		{ID: 3, Chapter: 12, Text: "Q3", Options: map[string]string{"A": "x", "B": "y"}, CorrectKey: "missing"},
	}
}

func TestBuild(t *testing.T) {
	chapters := Build(testPool())

	// All seven CPP domains plus the out-of-table chapter 12, sorted.
	if len(chapters) != 8 {
		t.Fatalf("expected 8 chapters, got %d", len(chapters))
	}
	for i := 1; i < len(chapters); i++ {
		if chapters[i-1].Number >= chapters[i].Number {
			t.Fatal("chapters not sorted by number")
		}
	}

	byNumber := make(map[int]model.Chapter)
	for _, c := range chapters {
		byNumber[c.Number] = c
	}

	if byNumber[1].Title != "Security Principles and Practices" {
		t.Errorf("unexpected title for chapter 1: %q", byNumber[1].Title)
	}
	if byNumber[12].Title != "Domain 12" {
		t.Errorf("expected fallback title for chapter 12, got %q", byNumber[12].Title)
	}

	// Card back is the correct option's text in sorted key order.
	if len(byNumber[5].Cards) != 1 {
		t.Fatalf("expected 1 card in chapter 5, got %d", len(byNumber[5].Cards))
	}
	card := byNumber[5].Cards[0]
	if card.Question != "Q1" {
		t.Errorf("expected question Q1, got %q", card.Question)
	}
	if card.Answer != "beta" {
		t.Errorf("expected answer 'beta', got %q", card.Answer)
	}
	if card.Explanation != "e1" {
		t.Errorf("expected explanation e1, got %q", card.Explanation)
	}

	// Missing correct key defaults to the first sorted option.
	if byNumber[12].Cards[0].Answer != "x" {
		t.Errorf("expected defaulted answer 'x', got %q", byNumber[12].Cards[0].Answer)
	}

	// Known domains without questions still appear, empty.
	if len(byNumber[7].Cards) != 0 {
		t.Errorf("expected empty chapter 7, got %d cards", len(byNumber[7].Cards))
	}

	// Fresh deck starts with zero-value state.
	for _, c := range chapters {
		for _, card := range c.Cards {
			if card.IsReviewed || card.IsMastered || card.IsFavorite || card.AttemptCount != 0 {
				t.Errorf("card %s has non-zero initial state", card.ID)
			}
		}
	}
}

func TestCardIDStable(t *testing.T) {
	// IDs must be identical across builds so persisted state can be
	// rehydrated onto a fresh deck.
	a := Build(testPool())
	b := Build(testPool())

	for i := range a {
		for j := range a[i].Cards {
			if a[i].Cards[j].ID != b[i].Cards[j].ID {
				t.Fatalf("card ID changed between builds: %s != %s", a[i].Cards[j].ID, b[i].Cards[j].ID)
			}
		}
	}

	if CardID(1) == CardID(2) {
		t.Error("distinct questions produced the same card ID")
	}
}

// Package progress owns the mutable per-chapter review state. All mutation
// goes through the named operations on Store; views only ever see deep
// copies, which keeps the single-writer invariant trivial.
package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cppdeck/cppdeck/internal/model"
)

// Saver is the persistence gateway the store writes through after every
// mutation. A save failure is logged and the in-memory state stays
// authoritative; the next successful save writes the full state again.
type Saver interface {
	SaveProgress(states []model.ChapterState) error
}

// NotFoundError reports a mutation against an unknown chapter index or card
// ID. It indicates a caller bug (stale index or ID), not a user-facing
// condition.
type NotFoundError struct {
	ChapterIndex int
	CardID       string
}

func (e *NotFoundError) Error() string {
	if e.CardID == "" {
		return fmt.Sprintf("chapter index %d out of range", e.ChapterIndex)
	}
	return fmt.Sprintf("card %s not found in chapter index %d", e.CardID, e.ChapterIndex)
}

// Store is the long-lived mutable progress model over the chapter list.
type Store struct {
	mu       sync.Mutex
	chapters []model.Chapter
	saver    Saver
	now      func() time.Time
}

// New creates a Store over the given (already rehydrated) chapters.
func New(chapters []model.Chapter, saver Saver) *Store {
	return &Store{chapters: chapters, saver: saver, now: time.Now}
}

// Apply rehydrates persisted card state onto a freshly built default deck,
// matching by chapter number and card ID. Entries that no longer exist in
// the deck are ignored, so content changes in a new release win over stale
// persisted state.
func Apply(chapters []model.Chapter, states []model.ChapterState) {
	byNumber := make(map[int]int, len(chapters))
	for i, c := range chapters {
		byNumber[c.Number] = i
	}
	for _, st := range states {
		i, ok := byNumber[st.Number]
		if !ok {
			continue
		}
		cards := chapters[i].Cards
		byID := make(map[string]int, len(cards))
		for j, card := range cards {
			byID[card.ID] = j
		}
		for _, cs := range st.Cards {
			j, ok := byID[cs.ID]
			if !ok {
				continue
			}
			cards[j].IsReviewed = cs.IsReviewed
			cards[j].IsMastered = cs.IsMastered
			cards[j].IsFavorite = cs.IsFavorite
			cards[j].AttemptCount = cs.AttemptCount
			cards[j].LastReviewDate = cs.LastReviewDate
		}
	}
}

// MarkReviewed marks a card reviewed, bumps its attempt count and stamps the
// review time. Idempotent on the reviewed flag; every call increments the
// attempt count.
func (s *Store) MarkReviewed(chapterIndex int, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.card(chapterIndex, cardID)
	if err != nil {
		return err
	}
	card.IsReviewed = true
	card.AttemptCount++
	now := s.now()
	card.LastReviewDate = &now
	s.save()
	return nil
}

// MarkMastered sets the mastered flag. Mastering a card also forces it
// reviewed; un-mastering leaves the reviewed flag untouched.
func (s *Store) MarkMastered(chapterIndex int, cardID string, mastered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.card(chapterIndex, cardID)
	if err != nil {
		return err
	}
	card.IsMastered = mastered
	if mastered {
		card.IsReviewed = true
	}
	s.save()
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(chapterIndex int, cardID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.card(chapterIndex, cardID)
	if err != nil {
		return false, err
	}
	card.IsFavorite = !card.IsFavorite
	s.save()
	return card.IsFavorite, nil
}

// ProgressPercentage returns the reviewed percentage for one chapter.
func (s *Store) ProgressPercentage(chapterIndex int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chapterIndex < 0 || chapterIndex >= len(s.chapters) {
		return 0, &NotFoundError{ChapterIndex: chapterIndex}
	}
	return s.chapters[chapterIndex].ProgressPercentage(), nil
}

// Reset clears all review state back to zero values and persists the wipe.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chapters {
		for j := range s.chapters[i].Cards {
			card := &s.chapters[i].Cards[j]
			card.IsReviewed = false
			card.IsMastered = false
			card.IsFavorite = false
			card.AttemptCount = 0
			card.LastReviewDate = nil
		}
	}
	s.save()
}

// Chapters returns a deep copy of the chapter list for read-only use.
func (s *Store) Chapters() []model.Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Chapter, len(s.chapters))
	for i, c := range s.chapters {
		out[i] = c
		out[i].Cards = make([]model.Flashcard, len(c.Cards))
		copy(out[i].Cards, c.Cards)
	}
	return out
}

// Chapter returns a deep copy of one chapter by index.
func (s *Store) Chapter(chapterIndex int) (model.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chapterIndex < 0 || chapterIndex >= len(s.chapters) {
		return model.Chapter{}, &NotFoundError{ChapterIndex: chapterIndex}
	}
	c := s.chapters[chapterIndex]
	c.Cards = append([]model.Flashcard(nil), c.Cards...)
	return c, nil
}

// IndexOfChapter resolves a chapter number to its index in the chapter
// list.
func (s *Store) IndexOfChapter(number int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.chapters {
		if c.Number == number {
			return i, true
		}
	}
	return 0, false
}

// Favorites returns copies of all favorite cards across chapters, in
// chapter order.
func (s *Store) Favorites() []model.Flashcard {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Flashcard
	for _, c := range s.chapters {
		for _, card := range c.Cards {
			if card.IsFavorite {
				out = append(out, card)
			}
		}
	}
	return out
}

// card resolves a mutation target. Callers must hold s.mu.
func (s *Store) card(chapterIndex int, cardID string) (*model.Flashcard, error) {
	if chapterIndex < 0 || chapterIndex >= len(s.chapters) {
		return nil, &NotFoundError{ChapterIndex: chapterIndex}
	}
	cards := s.chapters[chapterIndex].Cards
	for i := range cards {
		if cards[i].ID == cardID {
			return &cards[i], nil
		}
	}
	return nil, &NotFoundError{ChapterIndex: chapterIndex, CardID: cardID}
}

// save writes the full state through the gateway. Callers must hold s.mu,
// which sequences saves behind the single writer. Failures are logged and
// otherwise ignored: in-memory state remains authoritative.
func (s *Store) save() {
	if s.saver == nil {
		return
	}
	states := make([]model.ChapterState, 0, len(s.chapters))
	for _, c := range s.chapters {
		states = append(states, model.StateOf(c))
	}
	if err := s.saver.SaveProgress(states); err != nil {
		slog.Error("save progress", "error", err)
	}
}

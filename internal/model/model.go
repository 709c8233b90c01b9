package model

import (
	"time"
)

// Question is one entry from the bundled question bank. Options is the raw
// key-to-text mapping from the source file; ordering is applied when a quiz
// question is built from it. Immutable after load.
type Question struct {
	ID          int               `json:"id"`
	Chapter     int               `json:"chapter"`
	Text        string            `json:"text"`
	Options     map[string]string `json:"options"`
	CorrectKey  string            `json:"correct_key"`
	Explanation string            `json:"explanation"`
}

// QuizQuestion is a snapshot of a Question inside a quiz session, with
// options flattened into deterministic sorted-key order.
type QuizQuestion struct {
	QuestionID    int      `json:"question_id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correct_index"`
	Explanation   string   `json:"explanation"`
	SelectedIndex *int     `json:"selected_index,omitempty"`
}

// Answered reports whether the user selected an option for this question.
func (q QuizQuestion) Answered() bool {
	return q.SelectedIndex != nil
}

// Correct reports whether the selected option is the correct one.
func (q QuizQuestion) Correct() bool {
	return q.SelectedIndex != nil && *q.SelectedIndex == q.CorrectIndex
}

// QuizSession is one quiz attempt. Sessions are ephemeral: they live in
// memory for the duration of the quiz and are never persisted.
type QuizSession struct {
	ID        string         `json:"id"`
	Chapter   int            `json:"chapter"`
	Questions []QuizQuestion `json:"questions"`
	Score     int            `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
	Completed bool           `json:"completed"`
}

// Select records the chosen option for one question. It returns false if
// either index is out of range or the session is already completed.
func (s *QuizSession) Select(questionIndex, optionIndex int) bool {
	if s.Completed {
		return false
	}
	if questionIndex < 0 || questionIndex >= len(s.Questions) {
		return false
	}
	q := &s.Questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return false
	}
	q.SelectedIndex = &optionIndex
	return true
}

// Complete marks the session finished and computes the final score as the
// number of correctly answered questions. Calling it again is a no-op and
// returns the stored score.
func (s *QuizSession) Complete() int {
	if s.Completed {
		return s.Score
	}
	score := 0
	for _, q := range s.Questions {
		if q.Correct() {
			score++
		}
	}
	s.Score = score
	s.Completed = true
	return score
}

// Chapter is a numbered unit of study content grouping flashcards.
type Chapter struct {
	Number int         `json:"number"`
	Title  string      `json:"title"`
	Cards  []Flashcard `json:"cards"`
}

// ReviewedCount returns the number of reviewed cards in the chapter.
func (c Chapter) ReviewedCount() int {
	n := 0
	for _, card := range c.Cards {
		if card.IsReviewed {
			n++
		}
	}
	return n
}

// MasteredCount returns the number of mastered cards in the chapter.
func (c Chapter) MasteredCount() int {
	n := 0
	for _, card := range c.Cards {
		if card.IsMastered {
			n++
		}
	}
	return n
}

// FavoriteCount returns the number of favorite cards in the chapter.
func (c Chapter) FavoriteCount() int {
	n := 0
	for _, card := range c.Cards {
		if card.IsFavorite {
			n++
		}
	}
	return n
}

// ProgressPercentage is the reviewed fraction of the chapter expressed 0-100.
// It is always recomputed from the cards, never stored, and clamped for
// display robustness. A chapter with no cards is 0.
func (c Chapter) ProgressPercentage() float64 {
	if len(c.Cards) == 0 {
		return 0
	}
	p := 100 * float64(c.ReviewedCount()) / float64(len(c.Cards))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Flashcard is a question/answer pair with review state. The ID is stable
// across runs so persisted state can be rehydrated onto a freshly built deck.
type Flashcard struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Explanation    string     `json:"explanation,omitempty"`
	IsReviewed     bool       `json:"is_reviewed"`
	IsMastered     bool       `json:"is_mastered"`
	IsFavorite     bool       `json:"is_favorite"`
	AttemptCount   int        `json:"attempt_count"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
}

// ChapterState is the persisted subset of a chapter: only card state.
// Titles and card content are always rebuilt from the question bank so that
// content updates in a new release are not masked by stale persisted data.
type ChapterState struct {
	Number int         `json:"number"`
	Cards  []CardState `json:"cards"`
}

// CardState holds the non-derivable per-card fields that survive restarts.
type CardState struct {
	ID             string     `json:"id"`
	IsReviewed     bool       `json:"is_reviewed"`
	IsMastered     bool       `json:"is_mastered"`
	IsFavorite     bool       `json:"is_favorite"`
	AttemptCount   int        `json:"attempt_count"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
}

// StateOf extracts the persistable state from a chapter.
func StateOf(c Chapter) ChapterState {
	st := ChapterState{Number: c.Number, Cards: make([]CardState, 0, len(c.Cards))}
	for _, card := range c.Cards {
		st.Cards = append(st.Cards, CardState{
			ID:             card.ID,
			IsReviewed:     card.IsReviewed,
			IsMastered:     card.IsMastered,
			IsFavorite:     card.IsFavorite,
			AttemptCount:   card.AttemptCount,
			LastReviewDate: card.LastReviewDate,
		})
	}
	return st
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Addr     string // HTTP listen address
	BankPath string // path to the question bank JSON file
	QuizSize int    // default number of questions per quiz
}

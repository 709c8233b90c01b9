// Package quiz builds quiz sessions from the loaded question pool.
package quiz

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cppdeck/cppdeck/internal/model"
)

// DefaultSize is the number of questions in a quiz when the caller does not
// ask for a specific count.
const DefaultSize = 50

// Generator produces quiz sessions. It is stateless aside from its
// randomness source, which is injectable for deterministic tests.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator using the given randomness source. Passing nil
// uses the package-level auto-seeded source.
func New(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate filters pool down to the given chapter, shuffles the matching
// questions uniformly and truncates to min(count, available). A chapter with
// no questions yields a session with an empty question list, not an error.
// Counts below 1 fall back to DefaultSize; asking for more than available
// returns all available.
func (g *Generator) Generate(pool []model.Question, chapter, count int) model.QuizSession {
	if count < 1 {
		count = DefaultSize
	}

	var questions []model.QuizQuestion
	for _, q := range pool {
		if q.Chapter == chapter {
			questions = append(questions, BuildQuizQuestion(q))
		}
	}

	g.shuffle(questions)
	if count < len(questions) {
		questions = questions[:count]
	}

	return model.QuizSession{
		ID:        uuid.NewString(),
		Chapter:   chapter,
		Questions: questions,
		CreatedAt: time.Now(),
	}
}

func (g *Generator) shuffle(questions []model.QuizQuestion) {
	swap := func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	}
	if g.rnd != nil {
		g.rnd.Shuffle(len(questions), swap)
		return
	}
	rand.Shuffle(len(questions), swap)
}

// BuildQuizQuestion flattens a raw question's option mapping into sorted-key
// order so that a given bank file always yields the same option order. The
// correct index is the position of the declared answer key within that
// order; if the key is absent it defaults to 0 rather than failing, a
// documented behavior of the source data format that must not be silently
// corrected.
func BuildQuizQuestion(q model.Question) model.QuizQuestion {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	options := make([]string, 0, len(keys))
	for _, k := range keys {
		options = append(options, q.Options[k])
	}

	correct := slices.Index(keys, q.CorrectKey)
	if correct < 0 {
		correct = 0
	}

	return model.QuizQuestion{
		QuestionID:   q.ID,
		Text:         q.Text,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  q.Explanation,
	}
}

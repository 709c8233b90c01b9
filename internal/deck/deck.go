// Package deck builds the default flashcard chapters from the question
// bank. The deck is the fixed default dataset: persisted progress only ever
// carries state flags, which are rehydrated onto a freshly built deck.
package deck

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/cppdeck/cppdeck/internal/model"
	"github.com/cppdeck/cppdeck/internal/quiz"
)

// cardNamespace seeds deterministic card IDs (UUIDv5) so the same bank
// always produces the same IDs across runs and releases.
var cardNamespace = uuid.MustParse("8f3c9d2a-5b1e-4c7a-9f0d-2e6b4a8c1d3f")

// chapterTitles maps CPP exam domain numbers to their official titles.
var chapterTitles = map[int]string{
	1: "Security Principles and Practices",
	2: "Business Principles and Practices",
	3: "Investigations",
	4: "Personnel Security",
	5: "Physical Security",
	6: "Information Security",
	7: "Crisis Management",
}

// Title returns the display title for a chapter number, falling back to a
// generic label for numbers outside the known domain table.
func Title(number int) string {
	if t, ok := chapterTitles[number]; ok {
		return t
	}
	return fmt.Sprintf("Domain %d", number)
}

// CardID returns the stable ID for the flashcard derived from a bank
// question.
func CardID(questionID int) string {
	return uuid.NewSHA1(cardNamespace, fmt.Appendf(nil, "card-%d", questionID)).String()
}

// Build constructs the default chapters from the question pool: one chapter
// per domain present in the pool plus every known domain, one flashcard per
// question. The card front is the question text, the back is the correct
// option's text, with the explanation carried alongside. All state flags
// start at their zero values.
func Build(pool []model.Question) []model.Chapter {
	cards := make(map[int][]model.Flashcard)
	for _, q := range pool {
		qq := quiz.BuildQuizQuestion(q)
		answer := ""
		if len(qq.Options) > 0 {
			answer = qq.Options[qq.CorrectIndex]
		}
		cards[q.Chapter] = append(cards[q.Chapter], model.Flashcard{
			ID:          CardID(q.ID),
			Question:    q.Text,
			Answer:      answer,
			Explanation: q.Explanation,
		})
	}

	numbers := make(map[int]bool)
	for n := range chapterTitles {
		numbers[n] = true
	}
	for n := range cards {
		numbers[n] = true
	}

	chapters := make([]model.Chapter, 0, len(numbers))
	for n := range numbers {
		chapters = append(chapters, model.Chapter{
			Number: n,
			Title:  Title(n),
			Cards:  cards[n],
		})
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters
}

// Package bank loads the bundled question bank into an immutable in-memory
// question pool. Loading is all-or-nothing: any error leaves the pool empty,
// and callers treat an empty pool as a valid state with zero quizzes
// available.
package bank

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cppdeck/cppdeck/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

var (
	// ErrNotFound indicates the question bank file does not exist.
	ErrNotFound = errors.New("question bank not found")
	// ErrMalformed indicates the question bank file failed to parse or
	// validate.
	ErrMalformed = errors.New("question bank malformed")
)

type document struct {
	TotalQuestions    int            `json:"total_questions"`
	QuestionsByDomain map[string]int `json:"questions_by_domain"`
	Questions         []rawQuestion  `json:"questions"`
}

type rawQuestion struct {
	Number        int               `json:"number"`
	Domain        string            `json:"domain"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
}

// Load reads and parses the question bank at path. Source order is
// preserved; no deduplication is performed.
func Load(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw bank bytes against the embedded schema and converts
// the records into the normalized question pool.
func Parse(data []byte) ([]model.Question, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(reasons, "; "))
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	questions := make([]model.Question, 0, len(doc.Questions))
	for _, raw := range doc.Questions {
		questions = append(questions, model.Question{
			ID:          raw.Number,
			Chapter:     ChapterFromDomain(raw.Domain),
			Text:        raw.Question,
			Options:     raw.Options,
			CorrectKey:  raw.CorrectAnswer,
			Explanation: raw.Explanation,
		})
	}
	return questions, nil
}

// ChapterFromDomain derives the chapter number from a domain label of the
// form "Domain <n>": the last whitespace-separated token parsed as an
// integer. Labels without a trailing integer yield 0. The silent default is
// intentional so that loading stays total-or-nothing.
func ChapterFromDomain(domain string) int {
	fields := strings.Fields(domain)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return n
}

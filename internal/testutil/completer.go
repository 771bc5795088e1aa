package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"quiz-rag/internal/llmservice"
	"quiz-rag/internal/models"
)

var ErrComplete = errors.New("fake completer failure")

var requestedRe = regexp.MustCompile(`generate (\d+) detailed`)

// Completer answers every quiz prompt with exactly the requested number of
// questions and every flashcards prompt with Cards flashcards.
type Completer struct {
	// Cards is the number of flashcards per answer.
	Cards int
	// FailCall makes the call with this 1-based number fail with ErrComplete.
	FailCall int
	// Respond overrides the canned answers when set.
	Respond func(prompt string, schema llmservice.Schema) (json.RawMessage, error)

	mu      sync.Mutex
	Prompts []string
	Schemas []string
}

func (c *Completer) Complete(_ context.Context, prompt string, schema llmservice.Schema) (json.RawMessage, error) {
	c.mu.Lock()
	c.Prompts = append(c.Prompts, prompt)
	c.Schemas = append(c.Schemas, schema.Name)
	call := len(c.Prompts)
	c.mu.Unlock()

	if call == c.FailCall {
		return nil, ErrComplete
	}
	if c.Respond != nil {
		return c.Respond(prompt, schema)
	}

	switch schema.Name {
	case models.QuizToolName:
		n := 1
		if m := requestedRe.FindStringSubmatch(prompt); m != nil {
			n, _ = strconv.Atoi(m[1])
		}
		out := models.GeneratedQuiz{QuizName: fmt.Sprintf("Quiz %d", call)}
		for i := range n {
			out.Questions = append(out.Questions, models.GeneratedQuestion{
				Question:    fmt.Sprintf("call %d question %d", call, i),
				Choices:     []string{"right", "wrong a", "wrong b", "wrong c"},
				AnswerIndex: 0,
				Explanation: "because",
			})
		}
		return json.Marshal(out)
	case models.FlashcardsToolName:
		var out models.GeneratedFlashcards
		for i := range c.Cards {
			out.Flashcards = append(out.Flashcards, models.Flashcard{
				Front: fmt.Sprintf("call %d term %d", call, i),
				Back:  "definition",
			})
		}
		return json.Marshal(out)
	}
	return nil, fmt.Errorf("unexpected schema %q", schema.Name)
}

// Calls is the number of completions requested so far.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Prompts)
}

// WordCounter counts whitespace separated words as tokens.
func WordCounter(_ string, text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && !inWord {
			n++
		}
		inWord = !space
	}
	return n
}

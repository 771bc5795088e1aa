package models

import "fmt"

// GeneratedQuestion is the shape the completion model returns for one question.
type GeneratedQuestion struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

type GeneratedQuiz struct {
	QuizName  string              `json:"quiz_name"`
	Questions []GeneratedQuestion `json:"questions"`
}

// Validate rejects quizzes whose answers do not point at a choice.
func (g GeneratedQuiz) Validate() error {
	for i, q := range g.Questions {
		if len(q.Choices) == 0 {
			return fmt.Errorf("question %d has no choices", i)
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Choices) {
			return fmt.Errorf("question %d answer index %d out of range [0,%d)", i, q.AnswerIndex, len(q.Choices))
		}
	}
	return nil
}

func (g GeneratedQuiz) ToQuiz() Quiz {
	questions := make([]Question, 0, len(g.Questions))
	for _, q := range g.Questions {
		questions = append(questions, Question{
			Text:               q.Question,
			Choices:            append([]string(nil), q.Choices...),
			CorrectChoiceIndex: q.AnswerIndex,
			Explanation:        q.Explanation,
		})
	}
	return Quiz{Name: g.QuizName, Questions: questions}
}

type GeneratedFlashcards struct {
	Flashcards []Flashcard `json:"flashcards"`
}

func (g GeneratedFlashcards) Validate() error {
	for i, f := range g.Flashcards {
		if f.Front == "" || f.Back == "" {
			return fmt.Errorf("flashcard %d has an empty side", i)
		}
	}
	return nil
}

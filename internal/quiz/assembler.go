package quiz

import (
	"math/rand/v2"
	"time"

	"github.com/samber/lo"

	"quiz-rag/internal/models"
)

// NewRand returns a generator for Randomize. A zero seed is taken from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Merge concatenates quizzes in the given order. The name of the first quiz
// that has one is kept.
func Merge(parts []models.Quiz) models.Quiz {
	var out models.Quiz
	for _, p := range parts {
		if out.Name == "" {
			out.Name = p.Name
		}
		out.Questions = append(out.Questions, p.Questions...)
	}
	if out.Questions == nil {
		out.Questions = []models.Question{}
	}
	return out
}

// MergeFlashcards concatenates flashcard sets in the given order.
func MergeFlashcards(parts []models.FlashcardSet) models.FlashcardSet {
	cards := lo.FlatMap(parts, func(p models.FlashcardSet, _ int) []models.Flashcard {
		return p.Flashcards
	})
	if cards == nil {
		cards = []models.Flashcard{}
	}
	return models.FlashcardSet{Flashcards: cards}
}

// Randomize shuffles the question order, then the choices of every question.
// The correct index follows its choice through the permutation.
func Randomize(q *models.Quiz, r *rand.Rand) {
	r.Shuffle(len(q.Questions), func(i, j int) {
		q.Questions[i], q.Questions[j] = q.Questions[j], q.Questions[i]
	})
	for i := range q.Questions {
		shuffleChoices(&q.Questions[i], r)
	}
}

// shuffleChoices applies a random permutation where perm[new] = old.
func shuffleChoices(q *models.Question, r *rand.Rand) {
	n := len(q.Choices)
	if n < 2 {
		return
	}
	perm := r.Perm(n)

	choices := make([]string, n)
	newIndex := -1
	for to, from := range perm {
		choices[to] = q.Choices[from]
		if from == q.CorrectChoiceIndex {
			newIndex = to
		}
	}
	q.Choices = choices
	if newIndex >= 0 {
		q.CorrectChoiceIndex = newIndex
	}
}

// RandomizeFlashcards shuffles the card order.
func RandomizeFlashcards(s *models.FlashcardSet, r *rand.Rand) {
	r.Shuffle(len(s.Flashcards), func(i, j int) {
		s.Flashcards[i], s.Flashcards[j] = s.Flashcards[j], s.Flashcards[i]
	})
}

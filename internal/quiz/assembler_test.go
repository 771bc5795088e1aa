package quiz

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-rag/internal/models"
)

func sampleQuiz() models.Quiz {
	var qs []models.Question
	for i := 0; i < 12; i++ {
		qs = append(qs, models.Question{
			Text:               fmt.Sprintf("question %d", i),
			Choices:            []string{"alpha", "beta", "gamma", "delta"},
			CorrectChoiceIndex: i % 4,
			Explanation:        fmt.Sprintf("because %d", i),
		})
	}
	return models.Quiz{Name: "sample", Questions: qs}
}

func TestMerge(t *testing.T) {
	a := models.Quiz{Name: "", Questions: []models.Question{{Text: "a1"}}}
	b := models.Quiz{Name: "second", Questions: []models.Question{{Text: "b1"}, {Text: "b2"}}}
	c := models.Quiz{Name: "third", Questions: []models.Question{{Text: "c1"}}}

	got := Merge([]models.Quiz{a, b, c})
	assert.Equal(t, "second", got.Name)
	texts := make([]string, len(got.Questions))
	for i, q := range got.Questions {
		texts[i] = q.Text
	}
	assert.Equal(t, []string{"a1", "b1", "b2", "c1"}, texts)

	assert.NotNil(t, Merge(nil).Questions)
}

func TestMergeFlashcards(t *testing.T) {
	got := MergeFlashcards([]models.FlashcardSet{
		{Flashcards: []models.Flashcard{{Front: "1", Back: "x"}}},
		{},
		{Flashcards: []models.Flashcard{{Front: "2", Back: "y"}, {Front: "3", Back: "z"}}},
	})
	require.Len(t, got.Flashcards, 3)
	assert.Equal(t, "3", got.Flashcards[2].Front)
	assert.NotNil(t, MergeFlashcards(nil).Flashcards)
}

func TestRandomize_PreservesCorrectAnswer(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		original := sampleQuiz()
		want := map[string]string{}
		for _, q := range original.Questions {
			want[q.Text] = q.CorrectChoice()
		}

		q := sampleQuiz()
		Randomize(&q, NewRand(seed))

		require.Len(t, q.Questions, len(original.Questions))
		for _, got := range q.Questions {
			assert.Equal(t, want[got.Text], got.CorrectChoice(), "seed %d, %s", seed, got.Text)
			assert.ElementsMatch(t, []string{"alpha", "beta", "gamma", "delta"}, got.Choices)
		}
		assert.ElementsMatch(t, original.Questions, withOriginalChoices(q.Questions))
	}
}

// withOriginalChoices undoes the choice shuffle so questions can be compared as a multiset.
func withOriginalChoices(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	order := []string{"alpha", "beta", "gamma", "delta"}
	for i, q := range qs {
		correct := q.CorrectChoice()
		q.Choices = order
		for j, c := range order {
			if c == correct {
				q.CorrectChoiceIndex = j
			}
		}
		out[i] = q
	}
	return out
}

func TestRandomize_DuplicateChoicesFollowIndex(t *testing.T) {
	// identical texts: only the position tells which one is correct
	for seed := uint64(1); seed <= 50; seed++ {
		q := models.Quiz{Questions: []models.Question{{
			Text:               "dup",
			Choices:            []string{"same", "same", "other"},
			CorrectChoiceIndex: 2,
		}}}
		Randomize(&q, NewRand(seed))
		assert.Equal(t, "other", q.Questions[0].CorrectChoice())
	}
}

func TestRandomize_Deterministic(t *testing.T) {
	a, b := sampleQuiz(), sampleQuiz()
	Randomize(&a, NewRand(42))
	Randomize(&b, NewRand(42))
	assert.Equal(t, a, b)
}

func TestRandomize_Moves(t *testing.T) {
	q := sampleQuiz()
	Randomize(&q, NewRand(7))
	assert.NotEqual(t, sampleQuiz(), q)
}

func TestRandomize_EdgeCases(t *testing.T) {
	empty := models.Quiz{}
	Randomize(&empty, NewRand(1))
	assert.Empty(t, empty.Questions)

	single := models.Quiz{Questions: []models.Question{{Text: "only", Choices: []string{"yes"}}}}
	Randomize(&single, NewRand(1))
	assert.Equal(t, "yes", single.Questions[0].CorrectChoice())
}

func TestRandomizeFlashcards(t *testing.T) {
	s := models.FlashcardSet{Flashcards: []models.Flashcard{{Front: "a"}, {Front: "b"}, {Front: "c"}, {Front: "d"}}}
	RandomizeFlashcards(&s, NewRand(3))
	assert.ElementsMatch(t, []models.Flashcard{{Front: "a"}, {Front: "b"}, {Front: "c"}, {Front: "d"}}, s.Flashcards)
}

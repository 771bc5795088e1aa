package models

// Chunk is one segment of a source document. Index is its position in the
// document and is kept through retrieval for provenance.
type Chunk struct {
	Text  string `json:"text" msgpack:"text"`
	Index int    `json:"index" msgpack:"index"`
}

// Question is a multiple-choice question. CorrectChoiceIndex points into Choices.
type Question struct {
	Text               string   `json:"questionText"`
	Choices            []string `json:"questionChoices"`
	CorrectChoiceIndex int      `json:"questionAnswerIndex"`
	Explanation        string   `json:"answerExplanation"`
}

// CorrectChoice returns the text of the correct choice, or "" when the index is out of range.
func (q Question) CorrectChoice() string {
	if q.CorrectChoiceIndex < 0 || q.CorrectChoiceIndex >= len(q.Choices) {
		return ""
	}
	return q.Choices[q.CorrectChoiceIndex]
}

type Quiz struct {
	Name      string     `json:"quizName"`
	Questions []Question `json:"questionCards"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}

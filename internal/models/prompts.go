package models

const (
	QuizToolName       = "submit_quiz"
	FlashcardsToolName = "submit_flashcards"
)

// RetrievalQuery selects the chunks questions are generated from.
const RetrievalQuery = "Extract detailed and specific content from the document to generate questions."

var (
	QuestionPromptTemplate = `You are a helpful assistant. Based on the following content, generate {{.num_questions}} detailed multiple-choice questions that test understanding of the material.

Content:
{{.content}}

Make the questions specific and ensure they relate directly to the provided material. Include:
- A question
- Four choices (one correct and three plausible distractors)
- The index of the correct choice, starting at 0
- An explanation

Provide a general quiz name about this content.
`

	FlashcardsPromptTemplate = `You are a helpful assistant. Based on the following content, generate flashcards to summarize the main subjects.
A flashcard can be either a term with its definition or an important notion with an explanation.
You can generate up to {{.max_flashcards}} flashcards.

Content:
{{.content}}

For each flashcard, include:
- The front of the card: the term, the notion or the question
- The back of the card: the definition, the explanation or the answer
`
)

// QuizSchema is the JSON schema the completion model must fill for a quiz.
var QuizSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"quiz_name": map[string]any{
			"type":        "string",
			"description": "Name that describes the quiz",
		},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "description": "The question being asked."},
					"choices": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of possible choices for the question.",
					},
					"answer_index": map[string]any{"type": "integer", "description": "Zero-based index of the correct choice."},
					"explanation":  map[string]any{"type": "string", "description": "Explanation of the correct answer."},
				},
				"required":             []string{"question", "choices", "answer_index", "explanation"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"quiz_name", "questions"},
	"additionalProperties": false,
}

var FlashcardSetSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"flashcards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"front": map[string]any{"type": "string", "description": "The term, the notion or the question."},
					"back":  map[string]any{"type": "string", "description": "The definition, the explanation or the answer."},
				},
				"required":             []string{"front", "back"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"flashcards"},
	"additionalProperties": false,
}

package answer

// Finish reasons of recoverable outcomes.
const (
	FinishReasonError       = "Error"
	FinishReasonNoDocuments = "No documents found"
)

// Messages are the canned user-facing answers.
type Messages struct {
	NoDocuments         string `yaml:"no_documents_message" env:"NO_DOCUMENTS_MESSAGE"`
	NoOrEmptyCollection string `yaml:"no_or_empty_collection" env:"NO_OR_EMPTY_COLLECTION"`
	EmptyMessage        string `yaml:"empty_message" env:"EMPTY_MESSAGE"`
	NoAnswerFound       string `yaml:"no_answer_found" env:"NO_ANSWER_FOUND"`
}

// DefaultMessages returns the German messages of the deployed product.
func DefaultMessages() Messages {
	return Messages{
		NoDocuments:         "Es tut mir leid, meine Antworten sind begrenzt. Sie müssen die richtigen Fragen stellen.",
		NoOrEmptyCollection: "Es tut mir leid, aber es wurden keine Dokumente bereitgestellt, welche ich durchsuchen könnte.",
		EmptyMessage:        "Leere Nachricht",
		NoAnswerFound:       "Es tut mir leid, mit dem mir bereitgestellten Kontext konnte ich keine Antwort finden.",
	}
}

// withDefaults fills empty messages from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.NoDocuments == "" {
		m.NoDocuments = d.NoDocuments
	}
	if m.NoOrEmptyCollection == "" {
		m.NoOrEmptyCollection = d.NoOrEmptyCollection
	}
	if m.EmptyMessage == "" {
		m.EmptyMessage = d.EmptyMessage
	}
	if m.NoAnswerFound == "" {
		m.NoAnswerFound = d.NoAnswerFound
	}
	return m
}

package features

// VocabularyVersion identifies the categorical vocabularies below. A model
// artifact records the version it was trained against, and the adapter
// refuses to score when versions disagree. Bump this whenever a vocabulary
// changes; never reorder an existing one, since codes are positional.
const VocabularyVersion = "v1"

// Encoder maps a small fixed vocabulary of category strings to stable
// integer codes. Codes follow the canonical enumeration order of the
// vocabulary, not any order observed in a dataset, so training and
// inference always agree.
//
// Lookup of an unseen value returns the encoder's default code rather than
// an error: one unfamiliar category must not block a prediction.
type Encoder struct {
	field       string
	vocabulary  []string
	codes       map[string]int
	defaultCode int
}

// NewEncoder builds an encoder for the given field. The vocabulary order is
// the code assignment: vocabulary[i] encodes to i. defaultCode is returned
// for values outside the vocabulary and must itself be a valid code.
func NewEncoder(field string, vocabulary []string, defaultCode int) *Encoder {
	codes := make(map[string]int, len(vocabulary))
	for i, v := range vocabulary {
		codes[v] = i
	}
	return &Encoder{
		field:       field,
		vocabulary:  vocabulary,
		codes:       codes,
		defaultCode: defaultCode,
	}
}

// Encode returns the stable integer code for value, or the default code if
// the value is not in the vocabulary.
func (e *Encoder) Encode(value string) int {
	if code, ok := e.codes[value]; ok {
		return code
	}
	return e.defaultCode
}

// Known reports whether value is part of the fixed vocabulary.
func (e *Encoder) Known(value string) bool {
	_, ok := e.codes[value]
	return ok
}

// Field returns the categorical field this encoder covers.
func (e *Encoder) Field() string { return e.field }

// Vocabulary returns the ordered vocabulary. Callers must not mutate it.
func (e *Encoder) Vocabulary() []string { return e.vocabulary }

// Fixed vocabularies, frozen at training time. The default codes match the
// documented request defaults: Month-to-Month, Electronic check, Fiber optic.
var (
	ContractEncoder = NewEncoder("contract_type",
		[]string{"Month-to-Month", "One year", "Two year"}, 0)

	PaymentEncoder = NewEncoder("payment_method",
		[]string{"Electronic check", "Mailed check", "Bank transfer", "Credit card"}, 0)

	InternetEncoder = NewEncoder("internet_service",
		[]string{"DSL", "Fiber optic", "No"}, 1)
)

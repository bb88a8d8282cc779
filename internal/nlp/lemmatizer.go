package nlp

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"

	"github.com/kailas-cloud/openalex4ml/internal/usecase/normalize"
)

// Lemmatizer looks lemmas up in golem's English dictionary.
// The dictionary is not part-of-speech aware, so pos only gates the lookup.
type Lemmatizer struct {
	golem *golem.Lemmatizer
}

// NewLemmatizer loads the English dictionary.
func NewLemmatizer() (*Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmas: %w", err)
	}
	return &Lemmatizer{golem: l}, nil
}

// Lemmatize implements normalize.Lemmatizer.
func (l *Lemmatizer) Lemmatize(word string, pos normalize.PartOfSpeech) string {
	if pos == normalize.Other {
		return word
	}
	return l.golem.Lemma(word)
}

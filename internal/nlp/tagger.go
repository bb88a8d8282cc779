// Package nlp backs the normalizer capabilities with English models:
// prose for tokenization and tagging, golem for lemmas.
package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/kailas-cloud/openalex4ml/internal/usecase/normalize"
)

// Tagger tokenizes and tags English text with prose's averaged perceptron.
type Tagger struct{}

// NewTagger creates a tagger.
func NewTagger() *Tagger { return &Tagger{} }

// Tag implements normalize.Tagger.
func (t *Tagger) Tag(text string) ([]normalize.TaggedToken, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}

	toks := doc.Tokens()
	out := make([]normalize.TaggedToken, len(toks))
	for i, tok := range toks {
		out[i] = normalize.TaggedToken{Text: tok.Text, POS: FromPenn(tok.Tag)}
	}
	return out, nil
}

// FromPenn maps a Penn Treebank tag to the coarse class used for lemmatization.
func FromPenn(tag string) normalize.PartOfSpeech {
	switch {
	case strings.HasPrefix(tag, "JJ"):
		return normalize.Adjective
	case strings.HasPrefix(tag, "NN"):
		return normalize.Noun
	case strings.HasPrefix(tag, "VB"):
		return normalize.Verb
	case strings.HasPrefix(tag, "RB"):
		return normalize.Adverb
	default:
		return normalize.Other
	}
}

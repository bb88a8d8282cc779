// Package normalize turns title+abstract text into filtered lemma tokens.
package normalize

import (
	"fmt"
	"strings"
)

// minLetters is the number of a–z characters a token needs to survive filtering.
const minLetters = 3

// Service normalizes text with injected NLP capabilities.
type Service struct {
	tagger     Tagger
	lemmatizer Lemmatizer
	stopwords  Stopwords
}

// New creates a normalizer.
func New(tagger Tagger, lemmatizer Lemmatizer, stopwords Stopwords) *Service {
	return &Service{tagger: tagger, lemmatizer: lemmatizer, stopwords: stopwords}
}

// Normalize tags text, lemmatizes adjectives, nouns, verbs and adverbs,
// lower-cases everything else and drops short tokens and stop words.
func (s *Service) Normalize(text string) ([]string, error) {
	tagged, err := s.tagger.Tag(text)
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}

	out := make([]string, 0, len(tagged))
	for _, tok := range tagged {
		word := strings.ToLower(tok.Text)
		if tok.POS != Other {
			word = s.lemmatizer.Lemmatize(word, tok.POS)
		}
		if s.keep(word) {
			out = append(out, word)
		}
	}
	return out, nil
}

func (s *Service) keep(word string) bool {
	letters := 0
	for _, r := range word {
		if r >= 'a' && r <= 'z' {
			letters++
		}
	}
	return letters >= minLetters && !s.stopwords.Contains(word)
}

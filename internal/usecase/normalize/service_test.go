package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mockTagger struct {
	tokens []TaggedToken
	err    error
}

func (m *mockTagger) Tag(_ string) ([]TaggedToken, error) { return m.tokens, m.err }

type mockLemmatizer struct {
	calls []string
}

func (m *mockLemmatizer) Lemmatize(word string, pos PartOfSpeech) string {
	m.calls = append(m.calls, word+"/"+pos.String())
	switch word {
	case "cats":
		return "cat"
	case "sat":
		return "sit"
	}
	return word
}

type setStopwords map[string]bool

func (s setStopwords) Contains(w string) bool { return s[w] }

func TestNormalize(t *testing.T) {
	tagger := &mockTagger{tokens: []TaggedToken{
		{Text: "The", POS: Other},
		{Text: "Cats", POS: Noun},
		{Text: "sat", POS: Verb},
		{Text: "on", POS: Other},
		{Text: "DNA-2", POS: Other},
		{Text: "x1y", POS: Other},
		{Text: "über", POS: Adjective},
		{Text: ".", POS: Other},
	}}
	lem := &mockLemmatizer{}
	svc := New(tagger, lem, setStopwords{"the": true})

	got, err := svc.Normalize("ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"cat", "sit", "dna-2", "über"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []string{"cats/NOUN", "sat/VERB", "über/ADJ"}
	if diff := cmp.Diff(wantCalls, lem.calls); diff != "" {
		t.Errorf("lemmatizer calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_LetterCountIgnoresNonASCII(t *testing.T) {
	svc := New(&mockTagger{tokens: []TaggedToken{{Text: "éé", POS: Other}, {Text: "abc", POS: Other}}},
		&mockLemmatizer{}, setStopwords{})
	got, _ := svc.Normalize("")
	if strings.Join(got, " ") != "abc" {
		t.Errorf("got %v", got)
	}
}

func TestNormalize_TaggerError(t *testing.T) {
	svc := New(&mockTagger{err: errors.New("model missing")}, &mockLemmatizer{}, setStopwords{})
	if _, err := svc.Normalize("text"); err == nil {
		t.Fatal("expected error")
	}
}

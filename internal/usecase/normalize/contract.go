package normalize

// PartOfSpeech is the coarse word class that drives lemmatization.
type PartOfSpeech int

// Parts of speech understood by the lemmatizer. Other tokens are kept verbatim.
const (
	Other PartOfSpeech = iota
	Adjective
	Noun
	Verb
	Adverb
)

func (p PartOfSpeech) String() string {
	switch p {
	case Adjective:
		return "ADJ"
	case Noun:
		return "NOUN"
	case Verb:
		return "VERB"
	case Adverb:
		return "ADV"
	default:
		return "X"
	}
}

// TaggedToken is a surface token with its part of speech.
type TaggedToken struct {
	Text string
	POS  PartOfSpeech
}

// Tagger splits text into tokens and tags each one.
type Tagger interface {
	Tag(text string) ([]TaggedToken, error)
}

// Lemmatizer maps a lower-cased word to its lemma for the given part of speech.
type Lemmatizer interface {
	Lemmatize(word string, pos PartOfSpeech) string
}

// Stopwords reports whether a lower-cased word is a stop word.
type Stopwords interface {
	Contains(word string) bool
}

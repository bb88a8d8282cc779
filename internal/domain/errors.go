package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCatalog signals an invalid subject catalog.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrUnknownAncestor signals a document subject whose ancestors cannot be resolved.
	ErrUnknownAncestor = errors.New("unknown ancestor")
	// ErrSourceUnavailable signals a transport or HTTP failure of the works endpoint.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourcePayload signals a works page that could not be decoded.
	ErrSourcePayload = errors.New("invalid source payload")
	// ErrMalformedShard signals a shard file that is not a subject map or record list.
	ErrMalformedShard = errors.New("malformed shard")
	// ErrMalformedVectors signals an unparsable embedding vectors file.
	ErrMalformedVectors = errors.New("malformed vectors file")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidFraction signals a test fraction outside [0, 1].
	ErrInvalidFraction = errors.New("test fraction must be within [0, 1]")
)

// UnknownAncestorError wraps ErrUnknownAncestor with the unresolved subject.
type UnknownAncestorError struct {
	SubjectID string
}

func (e *UnknownAncestorError) Error() string {
	return fmt.Sprintf("%s: subject %q is not in the catalog", ErrUnknownAncestor.Error(), e.SubjectID)
}

func (e *UnknownAncestorError) Unwrap() error { return ErrUnknownAncestor }

// NewUnknownAncestor creates an unknown ancestor error.
func NewUnknownAncestor(subjectID string) error {
	return &UnknownAncestorError{SubjectID: subjectID}
}

// MalformedCatalogError wraps ErrMalformedCatalog with the offending entry.
type MalformedCatalogError struct {
	SubjectID string
	Reason    string
}

func (e *MalformedCatalogError) Error() string {
	if e.SubjectID == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedCatalog.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: subject %q: %s", ErrMalformedCatalog.Error(), e.SubjectID, e.Reason)
}

func (e *MalformedCatalogError) Unwrap() error { return ErrMalformedCatalog }

// NewMalformedCatalog creates a malformed catalog error for one entry.
func NewMalformedCatalog(subjectID, reason string) error {
	return &MalformedCatalogError{SubjectID: subjectID, Reason: reason}
}

// Package catalog loads the subject catalog from its JSON export.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
	"github.com/kailas-cloud/openalex4ml/internal/jsonobj"
)

// entryDTO is one catalog member as stored on disk.
type entryDTO struct {
	Name        string             `json:"name"`
	Ancestors   []subject.Ancestor `json:"ancestors"`
	WorksAPIURL string             `json:"works_api_url"`
}

// Load reads and validates the catalog file at path.
func Load(path string) (*subject.Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a catalog object from r, keeping the file's key order.
// Every failure is reported as domain.ErrMalformedCatalog.
func Decode(r io.Reader) (*subject.Catalog, error) {
	var subjects []subject.Subject
	dec := json.NewDecoder(r)
	err := jsonobj.Decode(dec, func(id string, dec *json.Decoder) error {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return domain.NewMalformedCatalog(id, err.Error())
		}
		var e entryDTO
		if err := json.Unmarshal(raw, &e); err != nil {
			return domain.NewMalformedCatalog(id, "entry is not an object: "+err.Error())
		}
		if jsonobj.IsNull(raw) {
			return domain.NewMalformedCatalog(id, "entry is null")
		}
		s, err := subject.New(id, e.Name, e.Ancestors, e.WorksAPIURL)
		if err != nil {
			return err
		}
		subjects = append(subjects, s)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrMalformedCatalog) {
			return nil, err
		}
		return nil, domain.NewMalformedCatalog("", err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewMalformedCatalog("", "trailing data after catalog object")
	}

	return subject.NewCatalog(subjects)
}

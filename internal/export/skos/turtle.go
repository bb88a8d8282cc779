// Package skos serializes the subject catalog as a SKOS concept scheme in
// RDF Turtle.
package skos

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
)

// Namespace IRIs.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	SKOS = "http://www.w3.org/2004/02/skos/core#"
)

// Catalog lists subjects in output order.
type Catalog interface {
	Subjects() []subject.Subject
}

// Write emits every catalog subject as a skos:Concept with its preferred
// label and one skos:broader link per ancestor.
func Write(w io.Writer, catalog Catalog) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "@prefix rdf: <%s> .\n", RDF)
	fmt.Fprintf(bw, "@prefix skos: <%s> .\n\n", SKOS)

	for _, s := range catalog.Subjects() {
		fmt.Fprintf(bw, "<%s>\n", escapeIRI(s.ID()))
		bw.WriteString("    rdf:type skos:Concept ;\n")
		fmt.Fprintf(bw, "    skos:prefLabel \"%s\"@en", escapeString(s.Name()))
		for _, a := range s.Ancestors() {
			fmt.Fprintf(bw, " ;\n    skos:broader <%s>", escapeIRI(a.ID))
		}
		bw.WriteString(" .\n\n")
	}
	return bw.Flush()
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

// escapeIRI percent-encodes the characters Turtle forbids inside <...>.
func escapeIRI(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r <= 0x20, strings.ContainsRune("<>\"{}|^`\\", r):
			fmt.Fprintf(&sb, "%%%02X", r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

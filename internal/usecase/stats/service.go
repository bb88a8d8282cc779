// Package stats computes label statistics over a pre-split shard set.
package stats

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
)

// Report file names.
const (
	SubjectCountsName  = "subject_counts.json"
	DocsPerSubjectName = "docs_per_subject.json"
	SubjectsPerDocName = "subjects_per_doc.json"
)

// Report holds the three statistics, keyed by subject name.
type Report struct {
	// SubjectCounts is the number of documents each subject is assigned to.
	SubjectCounts *Table[int]
	// DocsPerSubject is the number of records stored under each subject key.
	DocsPerSubject *Table[int]
	// SubjectsPerDoc lists the label count of every record under each key.
	SubjectsPerDoc *Table[[]int]
}

// Service computes statistics.
type Service struct {
	catalog Catalog
	logger  *zap.Logger
}

// New creates a statistics service.
func New(catalog Catalog, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, logger: logger}
}

// Compute reads every shard of in. Every catalog subject appears in the
// report, in catalog order, even when nothing references it.
func (s *Service) Compute(ctx context.Context, in ShardSource) (*Report, error) {
	rep := &Report{
		SubjectCounts:  newTable[int](),
		DocsPerSubject: newTable[int](),
		SubjectsPerDoc: newTable[[]int](),
	}
	for _, subj := range s.catalog.Subjects() {
		rep.SubjectCounts.Update(subj.Name(), keep[int])
		rep.DocsPerSubject.Update(subj.Name(), keep[int])
		rep.SubjectsPerDoc.Update(subj.Name(), func(v []int) []int {
			if v == nil {
				return []int{}
			}
			return v
		})
	}

	names, err := in.Names()
	if err != nil {
		return nil, fmt.Errorf("list input shards: %w", err)
	}
	unknown := make(map[string]struct{})
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sh, err := in.ReadMap(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		s.add(rep, sh, unknown)
	}
	return rep, nil
}

func (s *Service) add(rep *Report, sh *document.Shard[document.Record], unknown map[string]struct{}) {
	for _, key := range sh.Subjects() {
		recs := sh.Records(key)
		keyName := s.name(key, unknown)
		rep.DocsPerSubject.Update(keyName, plus(len(recs)))
		for _, r := range recs {
			rep.SubjectsPerDoc.Update(keyName, func(v []int) []int { return append(v, len(r.Subjects)) })
			for _, sc := range r.Subjects {
				rep.SubjectCounts.Update(s.name(sc.ID, unknown), plus(1))
			}
		}
	}
}

// name reports unknown ids under the id itself, logging each one once.
func (s *Service) name(id string, unknown map[string]struct{}) string {
	if subj, ok := s.catalog.Get(id); ok {
		return subj.Name()
	}
	if _, seen := unknown[id]; !seen {
		unknown[id] = struct{}{}
		s.logger.Warn("Subject not in catalog", zap.String("subject", id))
	}
	return id
}

// Write stores the three report files in out.
func (s *Service) Write(rep *Report, out ReportSink) error {
	files := []struct {
		name string
		v    any
	}{
		{SubjectCountsName, rep.SubjectCounts},
		{DocsPerSubjectName, rep.DocsPerSubject},
		{SubjectsPerDocName, rep.SubjectsPerDoc},
	}
	for _, f := range files {
		if err := out.Write(f.name, f.v); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	s.logger.Info("Statistics written", zap.Int("subjects", len(rep.SubjectCounts.Keys())))
	return nil
}

func keep[T any](v T) T { return v }

func plus(n int) func(int) int {
	return func(v int) int { return v + n }
}

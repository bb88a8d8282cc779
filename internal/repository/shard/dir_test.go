package shard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
)

func TestNames_NumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"10.json", "2.json", "1.json", "test.json", "notes.txt", "1.json.tmp"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("[]"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	names, err := d.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := []string{"1.json", "2.json", "10.json", "test.json"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReadMap(t *testing.T) {
	d, err := Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sh := document.NewShard[document.Record]()
	sh.Add("S1", document.NewRecord(document.Tokens([]string{"cat"}), document.Scores{{ID: "S1", Value: 1}}))
	sh.Add("S0")

	if err := d.Write(Name(1), sh); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.Path(), "1.json.tmp")); !os.IsNotExist(err) {
		t.Error("tmp file must not remain after write")
	}

	got, err := d.ReadMap("1.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]string{"S1", "S0"}, got.Subjects()); diff != "" {
		t.Errorf("subjects mismatch: %s", diff)
	}
	if got.Records("S1")[0].ID != sh.Records("S1")[0].ID {
		t.Error("record id must round trip")
	}
}

func TestReadList_WrongShape(t *testing.T) {
	d, _ := Create(t.TempDir())
	if err := d.Write("1.json", document.NewShard[document.Record]()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := d.ReadList("1.json"); !errors.Is(err, domain.ErrMalformedShard) {
		t.Fatalf("expected ErrMalformedShard, got %v", err)
	}
}

func TestPeek(t *testing.T) {
	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{` {"a":[]}`, ShapeMap, false},
		{"\n[]", ShapeList, false},
		{"", 0, true},
		{"42", 0, true},
	}
	for _, tc := range tests {
		got, err := Peek([]byte(tc.in))
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("Peek(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreate_RemovesStaleShards(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"1.json", "2.json", "test.json", "3.json.tmp", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("[]"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	d, err := Create(dir)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.Write(Name(1), []document.Record{}); err != nil {
		t.Fatalf("write shard: %v", err)
	}

	names, err := d.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if diff := cmp.Diff([]string{"1.json"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "3.json.tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file must be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("non-shard file must be kept: %v", err)
	}
}

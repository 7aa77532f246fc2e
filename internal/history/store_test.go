package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/caredocs-labs/medextract/constants"
	"github.com/caredocs-labs/medextract/internal/pipeline"
	"github.com/caredocs-labs/medextract/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(id string) *pipeline.Result {
	rec := record.New("pdf-text", "note.pdf")
	rec.PatientInfo["name"] = "Jane Doe"
	rec.DocumentMetadata.AnalysisConfidence = constants.ConfidenceMedium
	return &pipeline.Result{
		ID:           id,
		SourcePath:   "/data/note.pdf",
		Record:       rec,
		Summary:      record.Summarize(rec),
		Status:       constants.StatusSingleChunk,
		Method:       "pdf-text",
		Pages:        3,
		TextLength:   1234,
		Chunks:       1,
		FailedChunks: nil,
	}
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a-1", "a-2"} {
		if err := s.Append(ctx, sampleResult(id)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	e := entries[0]
	if e.SourcePath != "/data/note.pdf" || e.Status != string(constants.StatusSingleChunk) {
		t.Errorf("entry = %+v", e)
	}
	if e.Confidence != string(constants.ConfidenceMedium) {
		t.Errorf("confidence = %q", e.Confidence)
	}
	if e.TextLength != 1234 || e.Pages != 3 {
		t.Errorf("entry = %+v", e)
	}
}

func TestGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, sampleResult("a-1")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "a-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != constants.StatusSingleChunk {
		t.Errorf("status = %q", got.Status)
	}
	if got.Record.PatientInfo["name"] != "Jane Doe" {
		t.Errorf("name = %q", got.Record.PatientInfo["name"])
	}
	if got.Summary.SectionCompleteness["patient_info"] == 0 {
		t.Error("summary not rebuilt from stored record")
	}
}

func TestFailedChunksSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := sampleResult("a-1")
	res.Status = constants.StatusMerged
	res.Chunks = 5
	res.FailedChunks = []int{2, 4}
	if err := s.Append(ctx, res); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "a-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.FailedChunks) != 2 || got.FailedChunks[0] != 2 || got.FailedChunks[1] != 4 {
		t.Fatalf("restored failed chunks = %v, want [2 4]", got.FailedChunks)
	}

	entries, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || len(entries[0].FailedChunks) != 2 {
		t.Fatalf("listed failed chunks = %+v", entries)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, sampleResult(id)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
}

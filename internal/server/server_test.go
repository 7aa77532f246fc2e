package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/caredocs-labs/medextract/constants"
	"github.com/caredocs-labs/medextract/internal/history"
	"github.com/caredocs-labs/medextract/internal/ocr"
	"github.com/caredocs-labs/medextract/internal/pipeline"
	"github.com/caredocs-labs/medextract/internal/record"
)

// newTestService bypasses pdfcpu inspection so tests can upload fake bytes.
func newTestService(cfg Config, runner Runner, hist HistoryReader) *Service {
	s := NewService(cfg, runner, hist, nil)
	s.inspect = func(path string) (ocr.PDFInfo, error) {
		return ocr.PDFInfo{Pages: 1}, nil
	}
	return s
}

type fakeRunner struct {
	res     *pipeline.Result
	err     error
	gotPath string
}

func (f *fakeRunner) Run(ctx context.Context, path string) (*pipeline.Result, error) {
	f.gotPath = path
	if f.err != nil {
		return f.res, f.err
	}
	return f.res, nil
}

type fakeHistory struct {
	entries []history.Entry
	results map[string]*pipeline.Result
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	return f.entries, nil
}

func (f *fakeHistory) Get(ctx context.Context, id string) (*pipeline.Result, error) {
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("analysis %s: not found", id)
}

func okResult() *pipeline.Result {
	rec := record.New("pdf-text", "note.pdf")
	rec.PatientInfo["name"] = "Jane Doe"
	return &pipeline.Result{
		ID:      "a-1",
		Record:  rec,
		Summary: record.Summarize(rec),
		Status:  constants.StatusSingleChunk,
		Chunks:  1,
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeEndpoint(t *testing.T) {
	runner := &fakeRunner{res: okResult()}
	srv := httptest.NewServer(newTestService(Config{UploadDir: t.TempDir()}, runner, nil).Routes())
	defer srv.Close()

	body, ctype := multipartBody(t, "file", "visit.pdf", []byte("%PDF-1.4 fake"))
	resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, b)
	}
	var got pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != constants.StatusSingleChunk {
		t.Errorf("status = %q", got.Status)
	}
	if got.Record.PatientInfo["name"] != "Jane Doe" {
		t.Errorf("name = %q", got.Record.PatientInfo["name"])
	}
	// The uploaded temp file must be cleaned up after the run.
	if _, err := os.Stat(runner.gotPath); !os.IsNotExist(err) {
		t.Errorf("upload %s was not removed", runner.gotPath)
	}
}

func TestAnalyzeRejectsNonPDF(t *testing.T) {
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{res: okResult()}, nil).Routes())
	defer srv.Close()

	body, ctype := multipartBody(t, "file", "notes.docx", []byte("not a pdf"))
	resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAnalyzeRejectsUnreadablePDF(t *testing.T) {
	s := NewService(Config{UploadDir: t.TempDir()}, &fakeRunner{res: okResult()}, nil, nil)
	s.inspect = func(path string) (ocr.PDFInfo, error) {
		return ocr.PDFInfo{}, fmt.Errorf("pdfcpu read: corrupt xref")
	}
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	body, ctype := multipartBody(t, "file", "broken.pdf", []byte("not really a pdf"))
	resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAnalyzeMissingFileField(t *testing.T) {
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{res: okResult()}, nil).Routes())
	defer srv.Close()

	body, ctype := multipartBody(t, "wrong", "visit.pdf", []byte("x"))
	resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAnalyzePipelineFailureMapsStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{pipeline.ErrNoUsableText, http.StatusUnprocessableEntity},
		{pipeline.ErrNoChunksSucceeded, http.StatusBadGateway},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(newTestService(Config{UploadDir: t.TempDir()}, &fakeRunner{err: tc.err}, nil).Routes())
		body, ctype := multipartBody(t, "file", "visit.pdf", []byte("x"))
		resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("err %v: status = %d, want %d", tc.err, resp.StatusCode, tc.want)
		}
		srv.Close()
	}
}

func TestAnalyzeFailureBodyCarriesEmptyRecord(t *testing.T) {
	failed := &pipeline.Result{
		ID:     "a-2",
		Record: record.New("pdf-text", "empty.pdf"),
		Status: constants.StatusFailed,
	}
	failed.Summary = record.Summarize(failed.Record)
	runner := &fakeRunner{res: failed, err: pipeline.ErrNoUsableText}
	srv := httptest.NewServer(newTestService(Config{UploadDir: t.TempDir()}, runner, nil).Routes())
	defer srv.Close()

	body, ctype := multipartBody(t, "file", "empty.pdf", []byte("x"))
	resp, err := http.Post(srv.URL+"/v1/analyze", ctype, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got struct {
		Error  string           `json:"error"`
		Result *pipeline.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Error == "" {
		t.Fatal("error body missing diagnostic message")
	}
	if got.Result == nil || got.Result.Record == nil {
		t.Fatal("error body missing the failed result")
	}
	if got.Result.Status != constants.StatusFailed {
		t.Errorf("status = %q", got.Result.Status)
	}
	if got.Result.Record.PatientInfo["name"] != record.Sentinel {
		t.Errorf("expected empty record, got name %q", got.Result.Record.PatientInfo["name"])
	}
}

func TestListAnalyses(t *testing.T) {
	hist := &fakeHistory{entries: []history.Entry{{ID: "a-1", SourcePath: "/data/note.pdf"}}}
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{}, hist).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/analyses")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Analyses []history.Entry `json:"analyses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Analyses) != 1 || got.Analyses[0].ID != "a-1" {
		t.Errorf("analyses = %+v", got.Analyses)
	}
}

func TestListAnalysesWithoutHistory(t *testing.T) {
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{}, nil).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/analyses")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetAnalysis(t *testing.T) {
	hist := &fakeHistory{results: map[string]*pipeline.Result{"a-1": okResult()}}
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{}, hist).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/analyses/a-1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/analyses/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(newTestService(Config{}, &fakeRunner{}, nil).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

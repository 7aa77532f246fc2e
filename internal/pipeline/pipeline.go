package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caredocs-labs/medextract/constants"
	"github.com/caredocs-labs/medextract/internal/chunk"
	"github.com/caredocs-labs/medextract/internal/llm"
	"github.com/caredocs-labs/medextract/internal/ocr"
	"github.com/caredocs-labs/medextract/internal/record"
)

var (
	// ErrNoUsableText means text acquisition produced nothing to analyze.
	ErrNoUsableText = errors.New("no usable text could be acquired from the document")
	// ErrNoChunksSucceeded means every chunk of a multi-chunk document failed.
	ErrNoChunksSucceeded = errors.New("no chunks were successfully analyzed")
)

// TextAcquirer produces raw text from a document path.
type TextAcquirer interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Recorder persists finished analyses. Implemented by the history store.
type Recorder interface {
	Append(ctx context.Context, res *Result) error
}

type Config struct {
	// MaxContextTokens is the per-request token budget. Documents estimated
	// over it are chunked.
	MaxContextTokens int
}

// Result is the outcome of one document analysis.
type Result struct {
	ID           string                   `json:"id"`
	SourcePath   string                   `json:"source_path"`
	Record       *record.Record           `json:"record"`
	Summary      record.Summary           `json:"summary"`
	Status       constants.AnalysisStatus `json:"status"`
	Method       string                   `json:"method"`
	Pages        int                      `json:"pages"`
	TextLength   int                      `json:"text_length"`
	Chunks       int                      `json:"chunks"`
	FailedChunks []int                    `json:"failed_chunks,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
	Duration     time.Duration            `json:"duration"`
}

// Pipeline wires acquisition, chunking, extraction, merge and persistence
// into one Run call.
type Pipeline struct {
	Logger    *slog.Logger
	Acquirer  TextAcquirer
	Analyzer  llm.DocumentAnalyzer
	Artifacts *ArtifactStore
	History   Recorder
	Config    Config
}

func New(cfg Config, acquirer TextAcquirer, analyzer llm.DocumentAnalyzer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = 7000
	}
	return &Pipeline{
		Logger:   logger,
		Acquirer: acquirer,
		Analyzer: analyzer,
		Config:   cfg,
	}
}

// Run analyzes the document at path end to end. On fatal failure the returned
// Result still carries a well-formed empty record and FAILED status alongside
// the error.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{
		ID:         uuid.New().String(),
		SourcePath: path,
		Status:     constants.StatusFailed,
	}
	log := p.Logger.With("req_id", res.ID, "file", filepath.Base(path))

	log.Info("pipeline.start")

	ext, err := p.Acquirer.Extract(ctx, path)
	res.Method = ext.Method
	res.Pages = ext.Pages
	res.Warnings = ext.Warnings
	res.TextLength = len(ext.Text)
	if err != nil || strings.TrimSpace(ext.Text) == "" {
		res.Record = record.New(ext.Method, filepath.Base(path))
		res.Summary = record.Summarize(res.Record)
		res.Duration = time.Since(start)
		if err != nil {
			log.Error("pipeline.acquire_failed", "error", err)
			return res, fmt.Errorf("%w: %v", ErrNoUsableText, err)
		}
		log.Error("pipeline.no_text")
		return res, ErrNoUsableText
	}

	tokens := chunk.EstimateTokens(ext.Text)
	log.Info("pipeline.text_acquired",
		"method", ext.Method,
		"pages", ext.Pages,
		"chars", len(ext.Text),
		"est_tokens", tokens)

	var rec *record.Record
	if tokens <= p.Config.MaxContextTokens {
		rec, err = p.analyzeSingle(ctx, log, res.ID, ext.Text)
		if err != nil {
			res.Summary = record.Summarize(res.ensureRecord(ext.Method, path))
			res.Duration = time.Since(start)
			return res, err
		}
		res.Status = constants.StatusSingleChunk
		res.Chunks = 1
	} else {
		rec, err = p.analyzeChunked(ctx, log, ext.Text, res)
		if err != nil {
			res.Summary = record.Summarize(res.ensureRecord(ext.Method, path))
			res.Duration = time.Since(start)
			return res, err
		}
		res.Status = constants.StatusMerged
	}

	rec.DocumentMetadata.ExtractionMethod = ext.Method
	rec.DocumentMetadata.FileSource = filepath.Base(path)
	if rec.DocumentMetadata.TextLength == 0 {
		rec.DocumentMetadata.TextLength = len(ext.Text)
	}

	res.Record = rec
	res.Summary = record.Summarize(rec)
	res.Duration = time.Since(start)

	if p.History != nil {
		if herr := p.History.Append(ctx, res); herr != nil {
			log.Warn("pipeline.history_append_failed", "error", herr)
		}
	}

	log.Info("pipeline.done",
		"status", res.Status,
		"chunks", res.Chunks,
		"failed_chunks", len(res.FailedChunks),
		"confidence", rec.DocumentMetadata.AnalysisConfidence,
		"completeness", res.Summary.OverallCompleteness,
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func (p *Pipeline) analyzeSingle(ctx context.Context, log *slog.Logger, runID, text string) (*record.Record, error) {
	rec, raw, err := p.Analyzer.Analyze(ctx, llm.AnalyzeRequest{Text: text, Label: "single"})
	p.Artifacts.Save(runID, "single", raw)
	if err != nil {
		log.Error("pipeline.single_failed", "error", err)
		return nil, err
	}
	return rec, nil
}

func (p *Pipeline) analyzeChunked(ctx context.Context, log *slog.Logger, text string, res *Result) (*record.Record, error) {
	chunks := chunk.Split(text, chunk.MaxChunkChars(p.Config.MaxContextTokens))
	res.Chunks = len(chunks)
	log.Info("pipeline.chunked", "chunks", len(chunks))

	var done []*record.Record
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := fmt.Sprintf("chunk_%d", c.Index+1)
		rec, raw, err := p.Analyzer.Analyze(ctx, llm.AnalyzeRequest{Text: c.Text, Label: label})
		p.Artifacts.Save(res.ID, label, raw)
		if err != nil {
			// Skip and continue: one bad chunk must not sink the document.
			res.FailedChunks = append(res.FailedChunks, c.Index+1)
			log.Warn("pipeline.chunk_failed", "chunk", c.Index+1, "error", err)
			continue
		}
		done = append(done, rec)
	}
	if len(done) == 0 {
		log.Error("pipeline.all_chunks_failed", "chunks", len(chunks))
		return nil, ErrNoChunksSucceeded
	}
	return record.Merge(done)
}

// ensureRecord backfills an empty record on the failure paths so callers
// always get a well-formed result.
func (r *Result) ensureRecord(method, path string) *record.Record {
	if r.Record == nil {
		r.Record = record.New(method, filepath.Base(path))
	}
	return r.Record
}

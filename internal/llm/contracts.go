package llm

import (
	"context"

	"github.com/caredocs-labs/medextract/internal/record"
)

// AnalyzeRequest is one extraction call: the full document text when it fits
// the context budget, otherwise a single chunk.
type AnalyzeRequest struct {
	Text string
	// Label tags the request's role for artifacts and logs: "single" for a
	// whole-document call, "chunk_N" (1-based) for chunked analysis.
	Label string
}

// DocumentAnalyzer is the interface the pipeline depends on. The raw model
// response text is returned whenever one was obtained — also on failure — so
// the caller can persist it as a debug artifact.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*record.Record, []byte, error)
}

// Package ocr acquires text from medical PDFs: native extraction first,
// per-page OCR when the document turns out to be scanned images.
package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// MethodNative and MethodOCR identify how the text was produced.
const (
	MethodNative = "pdf-text"
	MethodOCR    = "pdf-ocr"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // default "eng"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	PSM      int    // page segmentation mode; 6 = uniform block of text
	MaxPages int    // 0 = no limit

	// MinTextChars is the threshold below which native extraction is treated
	// as having found no real text and OCR takes over. Default 100.
	MinTextChars int

	// Progress, when set, is called once per OCR'd page.
	Progress func(done, total int)
}

type ExtractionResult struct {
	Text     string
	Pages    int
	Method   string // MethodNative | MethodOCR
	Language string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 100
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract runs native text extraction across every page and falls back to
// per-page OCR when the trimmed result is shorter than MinTextChars. A native
// failure is downgraded to a warning as long as OCR can still run; the
// returned error is non-nil only when both paths produced nothing.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()

	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		e.logger.Warn("ocr.native_extract_failed", "path", path, "error", err)
		warns = append(warns, "native extraction failed: "+err.Error())
		text = ""
	}

	if len(strings.TrimSpace(text)) >= e.cfg.MinTextChars {
		return ExtractionResult{
			Text:     text,
			Pages:    pages,
			Method:   MethodNative,
			Language: e.cfg.Language,
			Duration: time.Since(start),
			Warnings: warns,
		}, nil
	}

	e.logger.Info("ocr.fallback",
		"path", path,
		"native_chars", len(strings.TrimSpace(text)),
		"threshold", e.cfg.MinTextChars,
	)

	ocrText, ocrPages, ocrWarns, ocrErr := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if ocrErr != nil {
		e.logger.Error("ocr.fallback_failed", "path", path, "error", ocrErr)
		return ExtractionResult{
			Method:   MethodOCR,
			Language: e.cfg.Language,
			Duration: time.Since(start),
			Warnings: warns,
		}, ocrErr
	}

	return ExtractionResult{
		Text:     ocrText,
		Pages:    ocrPages,
		Method:   MethodOCR,
		Language: e.cfg.Language,
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

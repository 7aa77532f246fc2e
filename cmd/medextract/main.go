// Command medextract analyzes one medical PDF from the command line and
// prints the structured record as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/caredocs-labs/medextract/internal/common"
	"github.com/caredocs-labs/medextract/internal/export"
	"github.com/caredocs-labs/medextract/internal/history"
	"github.com/caredocs-labs/medextract/internal/llm/openrouter"
	"github.com/caredocs-labs/medextract/internal/ocr"
	"github.com/caredocs-labs/medextract/internal/pipeline"
)

func main() {
	var (
		file     = flag.String("file", "", "path to the PDF to analyze (required)")
		out      = flag.String("out", "", "write the record JSON to this file instead of stdout")
		xlsxPath = flag.String("xlsx", "", "also write an XLSX workbook to this path")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: medextract -file <document.pdf> [-out record.json] [-xlsx report.xlsx]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENROUTER_API_KEY is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ocrCfg := ocr.Discover(ocr.Config{
		Pdftotext:    cfg.OCR.Pdftotext,
		Pdftoppm:     cfg.OCR.Pdftoppm,
		Tesseract:    cfg.OCR.Tesseract,
		Language:     cfg.OCR.Language,
		DPI:          cfg.OCR.DPI,
		PSM:          cfg.OCR.PSM,
		MaxPages:     cfg.OCR.MaxPages,
		MinTextChars: cfg.OCR.MinTextChars,
	}, logger)
	ocrCfg.Progress = func(done, total int) {
		logger.Info("ocr progress", "page", done, "pages", total)
	}

	analyzer := openrouter.NewClient(openrouter.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	p := pipeline.New(
		pipeline.Config{MaxContextTokens: cfg.Pipeline.MaxContextTokens},
		ocr.NewExtractor(ocrCfg, logger),
		analyzer,
		logger,
	)
	p.Artifacts = pipeline.NewArtifactStore(cfg.Pipeline.ArtifactDir, logger)

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history store unavailable", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
			p.History = store
		}
	}

	if info, err := ocr.InspectPDF(*file); err == nil {
		logger.Info("document inspected", "pages", info.Pages, "has_images", info.HasImages)
	} else {
		logger.Warn("document inspection failed", "error", err)
	}

	res, err := p.Run(ctx, *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	if *out != "" {
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
			os.Exit(1)
		}
	} else {
		fmt.Println(string(body))
	}

	if *xlsxPath != "" {
		wb, err := export.NewService(logger).RecordXLSX(res.Record, res.Summary)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build workbook: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, wb, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *xlsxPath, err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", *xlsxPath)
	}
}

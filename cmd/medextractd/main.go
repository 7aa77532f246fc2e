// Command medextractd serves the extraction pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caredocs-labs/medextract/internal/common"
	"github.com/caredocs-labs/medextract/internal/history"
	"github.com/caredocs-labs/medextract/internal/llm/openrouter"
	"github.com/caredocs-labs/medextract/internal/ocr"
	"github.com/caredocs-labs/medextract/internal/pipeline"
	"github.com/caredocs-labs/medextract/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	var hist server.HistoryReader
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("open history store", "path", cfg.History.Path, "error", err)
			os.Exit(2)
		}
		defer store.Close()
		p.History = store
		hist = store
	}

	svc := server.NewService(server.Config{MaxUploadMB: cfg.Server.MaxUploadMB}, p, hist, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

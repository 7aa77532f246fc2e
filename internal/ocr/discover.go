package ocr

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// extraSearchDirs are checked when a binary is not on PATH. Covers the usual
// Homebrew and Windows install locations for poppler and tesseract.
var extraSearchDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	`C:\Program Files\Tesseract-OCR`,
	`C:\Program Files (x86)\Tesseract-OCR`,
	`C:\poppler\Library\bin`,
	`C:\Program Files\poppler\Library\bin`,
}

// Discover resolves the external binaries once at process start and returns a
// Config carrying their absolute paths. Paths already set on cfg are kept.
// Missing binaries are left as bare names so a later PATH change can still
// work, with a warning logged per binary.
func Discover(cfg Config, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Pdftotext = resolveBinary(cfg.Pdftotext, "pdftotext", logger)
	cfg.Pdftoppm = resolveBinary(cfg.Pdftoppm, "pdftoppm", logger)
	cfg.Tesseract = resolveBinary(cfg.Tesseract, "tesseract", logger)
	return cfg
}

func resolveBinary(configured, name string, logger *slog.Logger) string {
	if configured != "" && configured != name {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
		logger.Warn("ocr.discover.configured_path_missing", "binary", name, "path", configured)
	}

	if p, err := exec.LookPath(name); err == nil {
		logger.Debug("ocr.discover.found", "binary", name, "path", p)
		return p
	}

	candidate := name
	if runtime.GOOS == "windows" {
		candidate += ".exe"
	}
	for _, dir := range extraSearchDirs {
		p := filepath.Join(dir, candidate)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			logger.Debug("ocr.discover.found", "binary", name, "path", p)
			return p
		}
	}

	logger.Warn("ocr.discover.not_found", "binary", name,
		"hint", "install poppler-utils and tesseract-ocr, or set *_PATH env vars")
	return name
}

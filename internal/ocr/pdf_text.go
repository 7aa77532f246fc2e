package ocr

import (
	"context"
	"strings"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	// pdftotext emits a form feed after every page, the last one included, so
	// the page count is the number of separators on the trimmed output. Keep
	// one newline between pages so downstream paragraph splitting stays stable.
	raw := strings.TrimSuffix(string(out), "\f")
	pages = 1 + strings.Count(raw, "\f")
	text = strings.ReplaceAll(raw, "\f", "\n")
	return text, pages, nil, nil
}

package ocr

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo describes a document before any text acquisition runs.
type PDFInfo struct {
	Pages     int
	HasImages bool
}

// InspectPDF validates the document and reports its page count and whether it
// carries image streams (a strong hint the OCR fallback will be needed).
// Used for progress totals; extraction itself never depends on it.
func InspectPDF(path string) (PDFInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return PDFInfo{}, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	info := PDFInfo{Pages: ctx.PageCount}
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				info.HasImages = true
				break
			}
		}
	}
	return info, nil
}

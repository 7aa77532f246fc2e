// Package export renders an analyzed record as an XLSX workbook for clinical
// staff who review extractions in spreadsheets.
package export

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/caredocs-labs/medextract/internal/record"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// flatSections in display order with their labels.
var flatSections = []struct {
	label string
	get   func(*record.Record) record.Section
}{
	{"Patient Info", func(r *record.Record) record.Section { return r.PatientInfo }},
	{"Administrative Info", func(r *record.Record) record.Section { return r.AdministrativeInfo }},
	{"Visit Details", func(r *record.Record) record.Section { return r.VisitDetails }},
	{"Medical Staff", func(r *record.Record) record.Section { return r.MedicalStaff }},
	{"Vital Signs", func(r *record.Record) record.Section { return r.VitalSigns }},
	{"Social History", func(r *record.Record) record.Section { return r.SocialHistory }},
	{"Billing Info", func(r *record.Record) record.Section { return r.BillingInfo }},
}

// entryLists in display order, each becoming its own sheet.
var entryLists = []struct {
	sheet string
	get   func(*record.Record) []record.Entry
}{
	{"Lab Results", func(r *record.Record) []record.Entry { return r.LabResults }},
	{"Medications", func(r *record.Record) []record.Entry { return r.Medications }},
	{"Procedures", func(r *record.Record) []record.Entry { return r.Procedures }},
	{"Diagnoses", func(r *record.Record) []record.Entry { return r.Diagnoses }},
	{"Imaging Studies", func(r *record.Record) []record.Entry { return r.ImagingStudies }},
	{"Appointments", func(r *record.Record) []record.Entry { return r.AppointmentsSchedule }},
	{"Recommendations", func(r *record.Record) []record.Entry { return r.DoctorRecommendations }},
}

var stringLists = []struct {
	label string
	get   func(*record.Record) []string
}{
	{"Discharge Instructions", func(r *record.Record) []string { return r.DischargeInstructions }},
	{"Key Findings", func(r *record.Record) []string { return r.KeyFindings }},
	{"Risk Factors", func(r *record.Record) []string { return r.RiskFactors }},
	{"Allergies", func(r *record.Record) []string { return r.Allergies }},
	{"Medical History", func(r *record.Record) []string { return r.MedicalHistory }},
	{"Family History", func(r *record.Record) []string { return r.FamilyHistory }},
}

// RecordXLSX renders the record and its summary into a workbook: a Summary
// sheet, one Details sheet with all flat sections and string lists, and one
// sheet per structured list.
func (s *Service) RecordXLSX(rec *record.Record, sum record.Summary) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()

	if err := s.writeSummarySheet(f, rec, sum); err != nil {
		return nil, err
	}
	if err := s.writeDetailsSheet(f, rec); err != nil {
		return nil, err
	}
	for _, l := range entryLists {
		if err := writeEntrySheet(f, l.sheet, l.get(rec)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"source", rec.DocumentMetadata.FileSource,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummarySheet(f *excelize.File, rec *record.Record, sum record.Summary) error {
	const sheet = "Summary"
	// excelize creates "Sheet1" by default; rename it to our first sheet.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	write := func(row int, k string, v any) {
		cellK, _ := excelize.CoordinatesToCellName(1, row)
		cellV, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, cellK, k)
		_ = f.SetCellValue(sheet, cellV, v)
	}

	row := 1
	write(row, "Source", rec.DocumentMetadata.FileSource)
	row++
	write(row, "Extraction Date", rec.DocumentMetadata.ExtractionDate)
	row++
	write(row, "Extraction Method", rec.DocumentMetadata.ExtractionMethod)
	row++
	write(row, "Confidence", string(rec.DocumentMetadata.AnalysisConfidence))
	row++
	write(row, "Text Length", rec.DocumentMetadata.TextLength)
	row++
	write(row, "Overall Completeness %", fmt.Sprintf("%.1f", sum.OverallCompleteness))
	row++
	write(row, "Total Extracted Items", sum.TotalItems)
	row += 2

	names := make([]string, 0, len(sum.SectionCompleteness))
	for name := range sum.SectionCompleteness {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(row, name+" completeness %", fmt.Sprintf("%.1f", sum.SectionCompleteness[name]))
		row++
	}
	row++

	counts := make([]string, 0, len(sum.ListCounts))
	for name := range sum.ListCounts {
		counts = append(counts, name)
	}
	sort.Strings(counts)
	for _, name := range counts {
		write(row, name+" items", sum.ListCounts[name])
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "B", 48)
	return nil
}

func (s *Service) writeDetailsSheet(f *excelize.File, rec *record.Record) error {
	const sheet = "Details"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for _, sec := range flatSections {
		write(1, sec.label)
		row++
		m := sec.get(rec)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			write(2, k)
			write(3, m[k])
			row++
		}
		row++
	}

	for _, l := range stringLists {
		write(1, l.label)
		row++
		for _, v := range l.get(rec) {
			write(2, v)
			row++
		}
		row++
	}

	write(1, "Follow Up Required")
	write(2, rec.FollowUpRequired)
	row += 2

	chartLists := []struct {
		label string
		vals  []string
	}{
		{"Trend Analysis", rec.ChartData.TrendAnalysis},
		{"Comparison Data", rec.ChartData.ComparisonData},
		{"Time Series", rec.ChartData.TimeSeries},
	}
	for _, l := range chartLists {
		write(1, l.label)
		row++
		for _, v := range l.vals {
			write(2, v)
			row++
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 26)
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "C", "C", 60)
	return nil
}

// writeEntrySheet renders one structured list. Columns are the union of entry
// keys, sorted for a stable layout.
func writeEntrySheet(f *excelize.File, sheet string, entries []record.Entry) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	keySet := map[string]bool{}
	for _, e := range entries {
		for k := range e {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, k)
	}
	for r, e := range entries {
		for i, k := range keys {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, e[k])
		}
	}
	if len(keys) > 0 {
		last, _ := excelize.ColumnNumberToName(len(keys))
		_ = f.SetColWidth(sheet, "A", last, 24)
	}
	return nil
}

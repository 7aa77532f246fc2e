package record

import (
	"fmt"
	"time"

	"github.com/caredocs-labs/medextract/constants"
)

// Merge combines per-chunk records, in chunk order, into one document-level
// record. Rules:
//
//   - list fields concatenate in chunk order, within-chunk order preserved,
//     no deduplication;
//   - flat sections take the first chunk with any populated value, falling
//     back to the first chunk's all-sentinel section;
//   - text_length sums across chunks;
//   - extraction_date resets to the merge time;
//   - analysis_confidence is the minimum rank across chunks — one
//     low-confidence chunk degrades trust in the whole document.
//
// Merge never mutates its inputs. Calling it with zero records is a caller
// bug and returns an error.
func Merge(records []*Record) (*Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("merge: no records to merge")
	}

	out := records[0].Clone()

	out.AdministrativeInfo = firstPopulatedSection(records, func(r *Record) Section { return r.AdministrativeInfo })
	out.PatientInfo = firstPopulatedSection(records, func(r *Record) Section { return r.PatientInfo })
	out.VisitDetails = firstPopulatedSection(records, func(r *Record) Section { return r.VisitDetails })
	out.MedicalStaff = firstPopulatedSection(records, func(r *Record) Section { return r.MedicalStaff })
	out.VitalSigns = firstPopulatedSection(records, func(r *Record) Section { return r.VitalSigns })
	out.SocialHistory = firstPopulatedSection(records, func(r *Record) Section { return r.SocialHistory })
	out.BillingInfo = firstPopulatedSection(records, func(r *Record) Section { return r.BillingInfo })

	out.LabResults = concatEntries(records, func(r *Record) []Entry { return r.LabResults })
	out.Medications = concatEntries(records, func(r *Record) []Entry { return r.Medications })
	out.Procedures = concatEntries(records, func(r *Record) []Entry { return r.Procedures })
	out.Diagnoses = concatEntries(records, func(r *Record) []Entry { return r.Diagnoses })
	out.ImagingStudies = concatEntries(records, func(r *Record) []Entry { return r.ImagingStudies })
	out.AppointmentsSchedule = concatEntries(records, func(r *Record) []Entry { return r.AppointmentsSchedule })
	out.DoctorRecommendations = concatEntries(records, func(r *Record) []Entry { return r.DoctorRecommendations })

	out.DischargeInstructions = concatStrings(records, func(r *Record) []string { return r.DischargeInstructions })
	out.KeyFindings = concatStrings(records, func(r *Record) []string { return r.KeyFindings })
	out.RiskFactors = concatStrings(records, func(r *Record) []string { return r.RiskFactors })
	out.Allergies = concatStrings(records, func(r *Record) []string { return r.Allergies })
	out.MedicalHistory = concatStrings(records, func(r *Record) []string { return r.MedicalHistory })
	out.FamilyHistory = concatStrings(records, func(r *Record) []string { return r.FamilyHistory })

	out.ChartData = firstPopulatedChart(records)
	out.FollowUpRequired = firstPopulatedScalar(records, func(r *Record) string { return r.FollowUpRequired })

	total := 0
	confidence := records[0].DocumentMetadata.AnalysisConfidence
	for _, r := range records {
		total += r.DocumentMetadata.TextLength
		confidence = constants.MinConfidence(confidence, r.DocumentMetadata.AnalysisConfidence)
	}
	out.DocumentMetadata.TextLength = total
	out.DocumentMetadata.AnalysisConfidence = confidence
	out.DocumentMetadata.ExtractionDate = time.Now().UTC().Format(time.RFC3339)

	return out, nil
}

func firstPopulatedSection(records []*Record, pick func(*Record) Section) Section {
	for _, r := range records {
		if s := pick(r); s.Populated() {
			return cloneSection(s)
		}
	}
	return cloneSection(pick(records[0]))
}

func firstPopulatedChart(records []*Record) ChartData {
	for _, r := range records {
		if r.ChartData.Populated() {
			return ChartData{
				TrendAnalysis:  cloneStrings(r.ChartData.TrendAnalysis),
				ComparisonData: cloneStrings(r.ChartData.ComparisonData),
				TimeSeries:     cloneStrings(r.ChartData.TimeSeries),
			}
		}
	}
	return ChartData{
		TrendAnalysis:  []string{},
		ComparisonData: []string{},
		TimeSeries:     []string{},
	}
}

func firstPopulatedScalar(records []*Record, pick func(*Record) string) string {
	for _, r := range records {
		if v := pick(r); populated(v) {
			return v
		}
	}
	return pick(records[0])
}

func concatEntries(records []*Record, pick func(*Record) []Entry) []Entry {
	out := []Entry{}
	for _, r := range records {
		out = append(out, cloneEntries(pick(r))...)
	}
	return out
}

func concatStrings(records []*Record, pick func(*Record) []string) []string {
	out := []string{}
	for _, r := range records {
		out = append(out, cloneStrings(pick(r))...)
	}
	return out
}

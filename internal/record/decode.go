package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/caredocs-labs/medextract/constants"
)

// Decode parses a recovered JSON object into a well-formed Record. The model
// output is schema-approximate: keys go missing, scalars arrive as numbers,
// structured entries arrive as bare strings. Decode tolerates all of that and
// materializes every canonical field, so callers never see a partial shape.
// It fails only when data is not a JSON object at all.
func Decode(data []byte) (*Record, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	r := New("AI_analysis", "uploaded_pdf")
	r.DocumentMetadata = decodeMetadata(m["document_metadata"], r.DocumentMetadata)
	mergeSection(r.AdministrativeInfo, m["administrative_info"])
	mergeSection(r.PatientInfo, m["patient_info"])
	mergeSection(r.VisitDetails, m["visit_details"])
	mergeSection(r.MedicalStaff, m["medical_staff"])
	mergeSection(r.VitalSigns, m["vital_signs"])
	mergeSection(r.SocialHistory, m["social_history"])
	mergeSection(r.BillingInfo, m["billing_info"])
	r.LabResults = entryList(m["lab_results"])
	r.Medications = entryList(m["medications"])
	r.Procedures = entryList(m["procedures"])
	r.Diagnoses = entryList(m["diagnoses"])
	r.ImagingStudies = entryList(m["imaging_studies"])
	r.AppointmentsSchedule = entryList(m["appointments_schedule"])
	r.DoctorRecommendations = entryList(m["doctor_recommendations"])
	r.DischargeInstructions = stringList(m["discharge_instructions"])
	r.KeyFindings = stringList(m["key_findings"])
	r.RiskFactors = stringList(m["risk_factors"])
	r.Allergies = stringList(m["allergies"])
	r.MedicalHistory = stringList(m["medical_history"])
	r.FamilyHistory = stringList(m["family_history"])
	if v, ok := coerceString(m["follow_up_required"]); ok {
		r.FollowUpRequired = v
	}
	r.ChartData = decodeChartData(m["chart_data"])
	return r, nil
}

func decodeMetadata(v any, def Metadata) Metadata {
	m, ok := v.(map[string]any)
	if !ok {
		return def
	}
	out := def
	if s, ok := coerceString(m["extraction_date"]); ok && populated(s) {
		out.ExtractionDate = s
	}
	if s, ok := coerceString(m["document_type"]); ok && populated(s) {
		out.DocumentType = s
	}
	if s, ok := coerceString(m["file_source"]); ok && populated(s) {
		out.FileSource = s
	}
	if s, ok := coerceString(m["extraction_method"]); ok && populated(s) {
		out.ExtractionMethod = s
	}
	if s, ok := coerceString(m["analysis_confidence"]); ok {
		out.AnalysisConfidence = constants.ParseConfidence(s)
	}
	switch n := m["text_length"].(type) {
	case float64:
		out.TextLength = int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			out.TextLength = i
		}
	}
	return out
}

// mergeSection overlays model-provided keys onto the canonical section.
// Extra keys the model invented are kept; canonical keys stay sentinel-valued
// when missing. Nested lists (e.g. medical_staff.other_staff) collapse to a
// comma-joined string since sections are flat by contract.
func mergeSection(dst Section, v any) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for k, raw := range m {
		if s, ok := coerceString(raw); ok {
			dst[k] = s
		}
	}
}

func entryList(v any) []Entry {
	items, ok := v.([]any)
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case map[string]any:
			e := make(Entry, len(t))
			for k, raw := range t {
				if s, ok := coerceString(raw); ok {
					e[k] = s
				}
			}
			if len(e) > 0 {
				out = append(out, e)
			}
		default:
			// The model sometimes emits bare strings for structured lists.
			if s, ok := coerceString(t); ok && s != "" {
				out = append(out, Entry{"value": s})
			}
		}
	}
	return out
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case map[string]any:
			// A structured object in a free-text slot: keep it as compact JSON
			// rather than dropping extracted data.
			if b, err := json.Marshal(t); err == nil {
				out = append(out, string(b))
			}
		default:
			if s, ok := coerceString(t); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func decodeChartData(v any) ChartData {
	out := ChartData{
		TrendAnalysis:  []string{},
		ComparisonData: []string{},
		TimeSeries:     []string{},
	}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	out.TrendAnalysis = stringList(m["trend_analysis"])
	out.ComparisonData = stringList(m["comparison_data"])
	out.TimeSeries = stringList(m["time_series"])
	return out
}

// coerceString converts a scalar JSON value to its string form. Lists of
// scalars collapse to a comma-joined string. Nested objects and anything
// else report ok=false and are dropped.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return Sentinel, true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := coerceString(item); ok && populated(s) {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return Sentinel, true
		}
		return strings.Join(parts, ", "), true
	default:
		return "", false
	}
}

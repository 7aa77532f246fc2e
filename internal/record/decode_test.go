package record

import (
	"testing"

	"github.com/caredocs-labs/medextract/constants"
)

func TestDecodeFillsCanonicalShape(t *testing.T) {
	// A sparse, schema-approximate response: missing sections, numeric
	// scalars, a bare string in a structured list.
	raw := []byte(`{
		"document_metadata": {"analysis_confidence": "High", "text_length": "1234"},
		"patient_info": {"name": "Jane Doe", "age": 47},
		"medications": [{"name": "Metformin", "dose": 500}, "Aspirin 81mg"],
		"allergies": ["penicillin"],
		"vital_signs": {"heart_rate": 72.5}
	}`)

	r, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}

	if r.DocumentMetadata.AnalysisConfidence != constants.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", r.DocumentMetadata.AnalysisConfidence)
	}
	if r.DocumentMetadata.TextLength != 1234 {
		t.Errorf("text_length = %d, want 1234", r.DocumentMetadata.TextLength)
	}
	if r.PatientInfo["name"] != "Jane Doe" || r.PatientInfo["age"] != "47" {
		t.Errorf("patient_info = %v", r.PatientInfo)
	}
	if r.PatientInfo["insurance_info"] != Sentinel {
		t.Error("missing canonical key must default to the sentinel")
	}
	if r.VitalSigns["heart_rate"] != "72.5" {
		t.Errorf("heart_rate = %q, want coerced \"72.5\"", r.VitalSigns["heart_rate"])
	}
	if len(r.Medications) != 2 {
		t.Fatalf("medications = %d entries, want 2", len(r.Medications))
	}
	if r.Medications[0]["dose"] != "500" {
		t.Errorf("dose = %q, want coerced \"500\"", r.Medications[0]["dose"])
	}
	if r.Medications[1]["value"] != "Aspirin 81mg" {
		t.Errorf("bare string entry = %v, want wrapped under \"value\"", r.Medications[1])
	}
	if len(r.Allergies) != 1 || r.Allergies[0] != "penicillin" {
		t.Errorf("allergies = %v", r.Allergies)
	}
	// Sections absent from the payload still carry their canonical keys.
	if _, ok := r.BillingInfo["payment_status"]; !ok {
		t.Error("billing_info lost its canonical keys")
	}
	if r.LabResults == nil || r.ChartData.TimeSeries == nil {
		t.Error("lists must be non-nil even when absent")
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"text"`, `not json`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%q) should fail", raw)
		}
	}
}

func TestDecodeUnknownConfidenceRanksLow(t *testing.T) {
	r, err := Decode([]byte(`{"document_metadata": {"analysis_confidence": "absolutely certain"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.DocumentMetadata.AnalysisConfidence.Rank() != 1 {
		t.Fatalf("unknown confidence rank = %d, want 1", r.DocumentMetadata.AnalysisConfidence.Rank())
	}
}

func TestSummarize(t *testing.T) {
	r := New("AI_analysis", "uploaded_pdf")
	r.Medications = []Entry{{"name": "A"}, {"name": "B"}}
	r.KeyFindings = []string{"x"}
	// social_history: 1 of 4 keys populated
	r.SocialHistory["smoking"] = "never"

	s := Summarize(r)
	if s.ListCounts["medications"] != 2 || s.ListCounts["key_findings"] != 1 {
		t.Fatalf("list counts = %v", s.ListCounts)
	}
	if s.TotalItems != 3 {
		t.Fatalf("total items = %d, want 3", s.TotalItems)
	}
	if got := s.SectionCompleteness["social_history"]; got != 25 {
		t.Fatalf("social_history completeness = %f, want 25", got)
	}
	if s.OverallCompleteness != 0 {
		t.Fatalf("overall completeness = %f, want 0 for an empty record", s.OverallCompleteness)
	}
}

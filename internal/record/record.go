// Package record defines the fixed-shape structured record produced per
// extraction request and the deterministic merge of per-chunk records.
package record

import (
	"time"

	"github.com/caredocs-labs/medextract/constants"
)

// Sentinel marks a field the extraction service could not find. It is a wire
// convention: code never compares raw strings, it goes through Populated.
const Sentinel = "N/A"

// Section is a flat key->string mapping such as patient_info. Absent values
// hold the sentinel.
type Section map[string]string

// Entry is one row of a structured list such as lab_results. Values arrive
// from the model in whatever JSON type it chose; decode coerces them to
// strings.
type Entry map[string]string

// ChartData carries the numeric series the model extracted for charting.
type ChartData struct {
	TrendAnalysis  []string `json:"trend_analysis"`
	ComparisonData []string `json:"comparison_data"`
	TimeSeries     []string `json:"time_series"`
}

// Metadata describes the extraction itself.
type Metadata struct {
	ExtractionDate     string               `json:"extraction_date"`
	DocumentType       string               `json:"document_type"`
	FileSource         string               `json:"file_source"`
	AnalysisConfidence constants.Confidence `json:"analysis_confidence"`
	TextLength         int                  `json:"text_length"`
	ExtractionMethod   string               `json:"extraction_method"`
}

// Record is the structured result of analyzing one document (or one chunk).
// Every field is always present in a well-formed record: sections carry their
// canonical keys (sentinel-valued when absent) and lists are non-nil.
type Record struct {
	DocumentMetadata      Metadata  `json:"document_metadata"`
	AdministrativeInfo    Section   `json:"administrative_info"`
	PatientInfo           Section   `json:"patient_info"`
	VisitDetails          Section   `json:"visit_details"`
	MedicalStaff          Section   `json:"medical_staff"`
	VitalSigns            Section   `json:"vital_signs"`
	LabResults            []Entry   `json:"lab_results"`
	Medications           []Entry   `json:"medications"`
	Procedures            []Entry   `json:"procedures"`
	Diagnoses             []Entry   `json:"diagnoses"`
	ImagingStudies        []Entry   `json:"imaging_studies"`
	AppointmentsSchedule  []Entry   `json:"appointments_schedule"`
	DoctorRecommendations []Entry   `json:"doctor_recommendations"`
	DischargeInstructions []string  `json:"discharge_instructions"`
	KeyFindings           []string  `json:"key_findings"`
	RiskFactors           []string  `json:"risk_factors"`
	Allergies             []string  `json:"allergies"`
	MedicalHistory        []string  `json:"medical_history"`
	FamilyHistory         []string  `json:"family_history"`
	SocialHistory         Section   `json:"social_history"`
	FollowUpRequired      string    `json:"follow_up_required"`
	BillingInfo           Section   `json:"billing_info"`
	ChartData             ChartData `json:"chart_data"`
}

// Canonical key sets per section, matching the schema sent to the model.
var (
	administrativeKeys = []string{
		"bill_number", "mr_number", "room_ward_number", "hospital_name",
		"hospital_address", "hospital_phone", "department", "admission_number",
	}
	patientKeys = []string{
		"name", "age", "gender", "date_of_birth", "address", "phone_number",
		"emergency_contact", "insurance_info", "patient_id",
	}
	visitKeys = []string{
		"date_of_visit", "admission_date", "discharge_date", "visit_type",
		"chief_complaint", "referring_physician",
	}
	staffKeys = []string{
		"attending_physician", "consultant_name", "resident_doctor",
		"nurse_in_charge", "other_staff",
	}
	vitalKeys = []string{
		"blood_pressure_systolic", "blood_pressure_diastolic", "heart_rate",
		"temperature", "respiratory_rate", "oxygen_saturation", "weight",
		"height", "bmi", "pain_scale",
	}
	socialKeys = []string{"smoking", "alcohol", "occupation", "exercise"}
	billingKeys = []string{
		"total_charges", "insurance_coverage", "patient_responsibility",
		"payment_status",
	}
)

// New returns a well-formed, fully absent record: all canonical section keys
// set to the sentinel and all lists empty. method and source describe how the
// text was produced (e.g. "pdf-ocr", "uploaded_pdf").
func New(method, source string) *Record {
	return &Record{
		DocumentMetadata: Metadata{
			ExtractionDate:     time.Now().UTC().Format(time.RFC3339),
			DocumentType:       "medical_report",
			FileSource:         source,
			AnalysisConfidence: constants.ConfidenceLow,
			ExtractionMethod:   method,
		},
		AdministrativeInfo:    emptySection(administrativeKeys),
		PatientInfo:           emptySection(patientKeys),
		VisitDetails:          emptySection(visitKeys),
		MedicalStaff:          emptySection(staffKeys),
		VitalSigns:            emptySection(vitalKeys),
		LabResults:            []Entry{},
		Medications:           []Entry{},
		Procedures:            []Entry{},
		Diagnoses:             []Entry{},
		ImagingStudies:        []Entry{},
		AppointmentsSchedule:  []Entry{},
		DoctorRecommendations: []Entry{},
		DischargeInstructions: []string{},
		KeyFindings:           []string{},
		RiskFactors:           []string{},
		Allergies:             []string{},
		MedicalHistory:        []string{},
		FamilyHistory:         []string{},
		SocialHistory:         emptySection(socialKeys),
		FollowUpRequired:      Sentinel,
		BillingInfo:           emptySection(billingKeys),
		ChartData: ChartData{
			TrendAnalysis:  []string{},
			ComparisonData: []string{},
			TimeSeries:     []string{},
		},
	}
}

func emptySection(keys []string) Section {
	s := make(Section, len(keys))
	for _, k := range keys {
		s[k] = Sentinel
	}
	return s
}

// Populated reports whether the section holds at least one real value.
func (s Section) Populated() bool {
	for _, v := range s {
		if v != "" && v != Sentinel {
			return true
		}
	}
	return false
}

// populated reports whether a scalar holds a real value.
func populated(v string) bool {
	return v != "" && v != Sentinel
}

// Populated reports whether any chart series holds data.
func (c ChartData) Populated() bool {
	return len(c.TrendAnalysis) > 0 || len(c.ComparisonData) > 0 || len(c.TimeSeries) > 0
}

// Clone returns a deep copy. Merge works on copies so its inputs stay intact.
func (r *Record) Clone() *Record {
	out := *r
	out.AdministrativeInfo = cloneSection(r.AdministrativeInfo)
	out.PatientInfo = cloneSection(r.PatientInfo)
	out.VisitDetails = cloneSection(r.VisitDetails)
	out.MedicalStaff = cloneSection(r.MedicalStaff)
	out.VitalSigns = cloneSection(r.VitalSigns)
	out.SocialHistory = cloneSection(r.SocialHistory)
	out.BillingInfo = cloneSection(r.BillingInfo)
	out.LabResults = cloneEntries(r.LabResults)
	out.Medications = cloneEntries(r.Medications)
	out.Procedures = cloneEntries(r.Procedures)
	out.Diagnoses = cloneEntries(r.Diagnoses)
	out.ImagingStudies = cloneEntries(r.ImagingStudies)
	out.AppointmentsSchedule = cloneEntries(r.AppointmentsSchedule)
	out.DoctorRecommendations = cloneEntries(r.DoctorRecommendations)
	out.DischargeInstructions = cloneStrings(r.DischargeInstructions)
	out.KeyFindings = cloneStrings(r.KeyFindings)
	out.RiskFactors = cloneStrings(r.RiskFactors)
	out.Allergies = cloneStrings(r.Allergies)
	out.MedicalHistory = cloneStrings(r.MedicalHistory)
	out.FamilyHistory = cloneStrings(r.FamilyHistory)
	out.ChartData = ChartData{
		TrendAnalysis:  cloneStrings(r.ChartData.TrendAnalysis),
		ComparisonData: cloneStrings(r.ChartData.ComparisonData),
		TimeSeries:     cloneStrings(r.ChartData.TimeSeries),
	}
	return &out
}

func cloneSection(s Section) Section {
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func cloneEntries(es []Entry) []Entry {
	out := make([]Entry, len(es))
	for i, e := range es {
		c := make(Entry, len(e))
		for k, v := range e {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func cloneStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

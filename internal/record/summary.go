package record

// Summary holds derived statistics handed to presentation layers alongside
// the record.
type Summary struct {
	ListCounts          map[string]int     `json:"list_counts"`
	SectionCompleteness map[string]float64 `json:"section_completeness"`
	OverallCompleteness float64            `json:"overall_completeness"`
	TotalItems          int                `json:"total_items"`
}

// coreSections are the sections the overall completeness averages over.
var coreSections = []string{
	"patient_info", "administrative_info", "visit_details", "vital_signs", "billing_info",
}

// Summarize derives counts per list field and completeness percentages per
// flat section (populated keys / total keys x 100).
func Summarize(r *Record) Summary {
	counts := map[string]int{
		"lab_results":            len(r.LabResults),
		"medications":            len(r.Medications),
		"procedures":             len(r.Procedures),
		"diagnoses":              len(r.Diagnoses),
		"imaging_studies":        len(r.ImagingStudies),
		"appointments_schedule":  len(r.AppointmentsSchedule),
		"doctor_recommendations": len(r.DoctorRecommendations),
		"discharge_instructions": len(r.DischargeInstructions),
		"key_findings":           len(r.KeyFindings),
		"risk_factors":           len(r.RiskFactors),
		"allergies":              len(r.Allergies),
		"medical_history":        len(r.MedicalHistory),
		"family_history":         len(r.FamilyHistory),
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	completeness := map[string]float64{
		"administrative_info": r.AdministrativeInfo.Completeness(),
		"patient_info":        r.PatientInfo.Completeness(),
		"visit_details":       r.VisitDetails.Completeness(),
		"medical_staff":       r.MedicalStaff.Completeness(),
		"vital_signs":         r.VitalSigns.Completeness(),
		"social_history":      r.SocialHistory.Completeness(),
		"billing_info":        r.BillingInfo.Completeness(),
	}

	var overall float64
	for _, name := range coreSections {
		overall += completeness[name]
	}
	overall /= float64(len(coreSections))

	return Summary{
		ListCounts:          counts,
		SectionCompleteness: completeness,
		OverallCompleteness: overall,
		TotalItems:          total,
	}
}

// Completeness returns the percentage of keys holding a real value.
func (s Section) Completeness() float64 {
	if len(s) == 0 {
		return 0
	}
	n := 0
	for _, v := range s {
		if populated(v) {
			n++
		}
	}
	return float64(n) / float64(len(s)) * 100
}

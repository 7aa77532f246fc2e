package llm

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// structured record, as a generic map. It is deliberately permissive about
// section contents — the model's output is schema-approximate and the lenient
// decoder owns coercion — but pins the top-level shape: every known field
// must be an object or an array of the right kind.
func BuildRecordJSONSchema() map[string]any {
	listProp := map[string]any{"type": "array"}
	sectionProp := map[string]any{"type": "object"}

	props := map[string]any{
		"document_metadata": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"analysis_confidence": map[string]any{
					"type": "string",
					"enum": []string{"low", "medium", "high"},
				},
				"text_length": map[string]any{"type": []string{"integer", "string"}},
			},
		},
		"administrative_info":    sectionProp,
		"patient_info":           sectionProp,
		"visit_details":          sectionProp,
		"medical_staff":          sectionProp,
		"vital_signs":            sectionProp,
		"social_history":         sectionProp,
		"billing_info":           sectionProp,
		"chart_data":             sectionProp,
		"lab_results":            listProp,
		"medications":            listProp,
		"procedures":             listProp,
		"diagnoses":              listProp,
		"imaging_studies":        listProp,
		"appointments_schedule":  listProp,
		"doctor_recommendations": listProp,
		"discharge_instructions": listProp,
		"key_findings":           listProp,
		"risk_factors":           listProp,
		"allergies":              listProp,
		"medical_history":        listProp,
		"family_history":         listProp,
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

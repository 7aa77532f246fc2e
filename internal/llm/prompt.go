package llm

import (
	"strconv"
	"strings"
)

// basePrompt is the instructional template sent with every chunk. The target
// schema is spelled out inline so the model has no room to invent shape; any
// field it cannot find must carry the "N/A" sentinel or an empty list.
const basePrompt = `Analyze the following medical document chunk and extract ALL available information in JSON format.
If any information is not found in the chunk, mark it as "N/A". Ensure the output is a valid JSON object.

Medical Document Chunk:
{{text}}

Provide a comprehensive analysis in this JSON structure:
{
    "document_metadata": {
        "extraction_date": "{{extraction_date}}",
        "document_type": "medical_report",
        "file_source": "uploaded_pdf",
        "analysis_confidence": "high/medium/low",
        "text_length": {{text_length}},
        "extraction_method": "AI_analysis"
    },
    "administrative_info": {
        "bill_number": "N/A",
        "mr_number": "N/A",
        "room_ward_number": "N/A",
        "hospital_name": "N/A",
        "hospital_address": "N/A",
        "hospital_phone": "N/A",
        "department": "N/A",
        "admission_number": "N/A"
    },
    "patient_info": {
        "name": "N/A",
        "age": "N/A",
        "gender": "N/A",
        "date_of_birth": "N/A",
        "address": "N/A",
        "phone_number": "N/A",
        "emergency_contact": "N/A",
        "insurance_info": "N/A",
        "patient_id": "N/A"
    },
    "visit_details": {
        "date_of_visit": "N/A",
        "admission_date": "N/A",
        "discharge_date": "N/A",
        "visit_type": "N/A",
        "chief_complaint": "N/A",
        "referring_physician": "N/A"
    },
    "medical_staff": {
        "attending_physician": "N/A",
        "consultant_name": "N/A",
        "resident_doctor": "N/A",
        "nurse_in_charge": "N/A",
        "other_staff": []
    },
    "vital_signs": {
        "blood_pressure_systolic": "N/A",
        "blood_pressure_diastolic": "N/A",
        "heart_rate": "N/A",
        "temperature": "N/A",
        "respiratory_rate": "N/A",
        "oxygen_saturation": "N/A",
        "weight": "N/A",
        "height": "N/A",
        "bmi": "N/A",
        "pain_scale": "N/A"
    },
    "lab_results": [],
    "medications": [],
    "procedures": [],
    "diagnoses": [],
    "imaging_studies": [],
    "appointments_schedule": [],
    "doctor_recommendations": [],
    "discharge_instructions": [],
    "key_findings": [],
    "risk_factors": [],
    "allergies": [],
    "medical_history": [],
    "family_history": [],
    "social_history": {
        "smoking": "N/A",
        "alcohol": "N/A",
        "occupation": "N/A",
        "exercise": "N/A"
    },
    "follow_up_required": "N/A",
    "billing_info": {
        "total_charges": "N/A",
        "insurance_coverage": "N/A",
        "patient_responsibility": "N/A",
        "payment_status": "N/A"
    },
    "chart_data": {
        "trend_analysis": [],
        "comparison_data": [],
        "time_series": []
    }
}

Ensure the response is a valid JSON object enclosed in curly braces. Extract ALL numerical values for charts.`

// BuildPrompt interpolates the chunk text and request metadata into the
// instructional template.
func BuildPrompt(text, extractionDate string, textLength int) string {
	return strings.NewReplacer(
		"{{text}}", text,
		"{{extraction_date}}", extractionDate,
		"{{text_length}}", strconv.Itoa(textLength),
	).Replace(basePrompt)
}

package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// VisitStatus represents the status of a visit.
type VisitStatus string

const (
	VisitStatusPending   VisitStatus = "pending"
	VisitStatusConfirmed VisitStatus = "confirmed"
)

// Visit is one intake episode: transcription, extracted symptoms and causes,
// pain assessment and the confirmation status. Visits are never deleted by
// the application; they cascade only with their patient.
type Visit struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	PatientID          uint           `json:"patient_id" gorm:"not null;index"`
	VisitDate          time.Time      `json:"visit_date"`
	VisitReason        string         `json:"visit_reason" gorm:"type:text"`
	VoiceTranscription string         `json:"voice_transcription" gorm:"type:text"`
	Symptoms           datatypes.JSON `json:"symptoms" gorm:"type:jsonb"`
	PossibleCauses     datatypes.JSON `json:"possible_causes" gorm:"type:jsonb"`
	PainLevel          int            `json:"pain_level"`
	PainDuration       string         `json:"pain_duration" gorm:"size:50"`
	AudioFilePath      string         `json:"audio_file" gorm:"size:255"`
	AnalysisFilePath   string         `json:"analysis_file" gorm:"size:255"`
	Status             VisitStatus    `json:"status" gorm:"type:varchar(50);default:'pending'"`
	CreatedAt          time.Time      `json:"created_at"`

	// Relations
	Patient Patient `json:"-" gorm:"foreignKey:PatientID"`
}

// SetSymptoms stores an ordered symptom list as a JSON column value.
func (v *Visit) SetSymptoms(symptoms []string) {
	v.Symptoms = mustJSONList(symptoms)
}

// SetPossibleCauses stores an ordered cause list as a JSON column value.
func (v *Visit) SetPossibleCauses(causes []string) {
	v.PossibleCauses = mustJSONList(causes)
}

// SymptomList returns the stored symptoms as a string slice.
func (v *Visit) SymptomList() []string {
	return jsonList(v.Symptoms)
}

// PossibleCauseList returns the stored causes as a string slice.
func (v *Visit) PossibleCauseList() []string {
	return jsonList(v.PossibleCauses)
}

func mustJSONList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func jsonList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}

package model

import "time"

// Insurance holds a patient's coverage details, one-to-one with Patient.
// The insurance ID is persisted encrypted and decrypted only for staff reads.
type Insurance struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	PatientID            uint      `json:"patient_id" gorm:"uniqueIndex"`
	InsuranceName        string    `json:"insurance_name" gorm:"size:255"`
	EncryptedInsuranceID string    `json:"-" gorm:"size:255"`
	Medications          string    `json:"medications" gorm:"type:text"`
	MedicalConditions    string    `json:"medical_conditions" gorm:"type:text"`
	CreatedAt            time.Time `json:"created_at"`
}

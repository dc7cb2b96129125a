package model

import "time"

// Patient is the demographic profile tied one-to-one to a patient-role user.
// SSN is stored encrypted only; the plaintext never touches the database.
type Patient struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex"`
	FullName     string    `json:"full_name" gorm:"size:255;not null"`
	DateOfBirth  time.Time `json:"date_of_birth" gorm:"type:date;not null"`
	EncryptedSSN string    `json:"-" gorm:"size:255"`
	Phone        string    `json:"phone" gorm:"size:20"`
	Address      string    `json:"address" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	User      User       `json:"-" gorm:"foreignKey:UserID"`
	Insurance *Insurance `json:"insurance,omitempty" gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	Visits    []Visit    `json:"visits,omitempty" gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
}

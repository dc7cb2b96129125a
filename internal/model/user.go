package model

import "time"

// Role values for User.Role. The set is closed: anything else is denied by
// the access gate.
const (
	RolePatient = "patient"
	RoleStaff   = "staff"
)

// User represents a login identity, either a patient or a staff member.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         string     `json:"role" gorm:"size:20;not null"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	// Relations
	Patient  *Patient  `json:"patient,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Sessions []Session `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

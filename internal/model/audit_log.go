package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions. Every sensitive state transition writes exactly one row
// before the response is returned.
const (
	AuditActionView   = "view"
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLogin  = "login"
)

// AuditLog is an append-only record of who did what to which resource.
// UserID is nil for unauthenticated actions.
type AuditLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       *uint          `json:"user_id" gorm:"index"`
	Action       string         `json:"action" gorm:"size:100;not null"`
	ResourceType string         `json:"resource_type" gorm:"size:50;not null"`
	ResourceID   *uint          `json:"resource_id"`
	IPAddress    string         `json:"ip_address" gorm:"size:45"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`
	Timestamp    time.Time      `json:"timestamp"`
	Details      datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

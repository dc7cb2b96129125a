package model

import "time"

// Session is the server-side shadow of an issued bearer token. Only a
// one-way hash of the token is stored. A token is valid only while a
// matching, non-revoked, non-expired row exists, which makes logout
// effective despite the tokens being self-contained.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	TokenHash string    `json:"-" gorm:"size:255;not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	IsRevoked bool      `json:"is_revoked" gorm:"default:false"`
}

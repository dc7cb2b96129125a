package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"medintake/internal/model"
)

// SessionRepository defines token-session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) (bool, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindActiveByTokenHash returns the non-revoked, non-expired session for the
// hash, or gorm.ErrRecordNotFound.
func (r *sessionRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_revoked = ? AND expires_at > ?", tokenHash, false, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeByTokenHash marks the matching session revoked. Returns false only
// when no session exists for the hash; revoking an already-revoked session
// is a no-op success.
func (r *sessionRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token_hash = ?", tokenHash).
		Update("is_revoked", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Package audit writes the append-only trail of who did what to which
// resource. Every sensitive state transition records exactly one entry
// before the response goes out.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"medintake/internal/model"
	"medintake/internal/repository"
)

type contextKey struct{}

// RequestInfo is the request-scoped data attached to every audit entry.
// ActorID is nil for unauthenticated actions, which are still logged.
type RequestInfo struct {
	ActorID   *uint
	IPAddress string
	UserAgent string
}

// WithRequestInfo attaches request info to the context for later recording.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// InfoFromContext returns the attached request info, or a zero value when
// none was set.
func InfoFromContext(ctx context.Context) RequestInfo {
	if info, ok := ctx.Value(contextKey{}).(RequestInfo); ok {
		return info
	}
	return RequestInfo{}
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, action, resourceType string, resourceID *uint, details map[string]interface{}) error
}

type recorder struct {
	repo repository.AuditRepository
	log  zerolog.Logger
}

// NewRecorder creates a Recorder backed by the audit repository.
func NewRecorder(repo repository.AuditRepository, log zerolog.Logger) Recorder {
	return &recorder{repo: repo, log: log}
}

// Record writes one audit row, pulling actor, IP and user agent from the
// request context. A failed write is returned to the caller: the action's
// response must not go out without its audit record.
func (r *recorder) Record(ctx context.Context, action, resourceType string, resourceID *uint, details map[string]interface{}) error {
	info := InfoFromContext(ctx)

	entry := &model.AuditLog{
		UserID:       info.ActorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    info.IPAddress,
		UserAgent:    info.UserAgent,
		Timestamp:    time.Now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.log.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Msg("audit write failed")
		return err
	}

	r.log.Info().
		Str("action", action).
		Str("resource_type", resourceType).
		Msg("audit")
	return nil
}

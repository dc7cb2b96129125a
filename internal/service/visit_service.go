package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"medintake/internal/audit"
	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/rbac"
	"medintake/internal/repository"
)

const defaultRecentLimit = 10

// RecentVisit is one row of the staff recent-visits listing.
type RecentVisit struct {
	ID          uint     `json:"id"`
	PatientID   uint     `json:"patient_id"`
	PatientName string   `json:"patient_name"`
	VisitDate   string   `json:"visit_date"`
	VisitReason string   `json:"visit_reason"`
	Symptoms    []string `json:"symptoms"`
	Status      string   `json:"status"`
}

// VisitDetail is the full visit record returned to authorized callers.
type VisitDetail struct {
	ID                 uint     `json:"id"`
	PatientName        string   `json:"patient_name"`
	VisitDate          string   `json:"visit_date"`
	VisitReason        string   `json:"visit_reason"`
	VoiceTranscription string   `json:"voice_transcription"`
	Symptoms           []string `json:"symptoms"`
	PossibleCauses     []string `json:"possible_causes"`
	PainLevel          int      `json:"pain_level"`
	PainDuration       string   `json:"pain_duration"`
	Status             string   `json:"status"`
	AudioFile          string   `json:"audio_file"`
	AnalysisFile       string   `json:"analysis_file"`
}

// VisitService exposes visit read operations with role and ownership
// checks applied.
type VisitService interface {
	Recent(ctx context.Context, role string, limit int) ([]RecentVisit, error)
	GetVisit(ctx context.Context, role string, callerUserID, visitID uint) (*VisitDetail, error)
	MyVisits(ctx context.Context, role string, userID uint) ([]VisitSummary, error)
}

type visitService struct {
	visits   repository.VisitRepository
	patients repository.PatientRepository
	auditor  audit.Recorder
}

// NewVisitService creates a new visit service.
func NewVisitService(visits repository.VisitRepository, patients repository.PatientRepository, auditor audit.Recorder) VisitService {
	return &visitService{visits: visits, patients: patients, auditor: auditor}
}

// Recent returns the newest visits across all patients. Staff only.
func (s *visitService) Recent(ctx context.Context, role string, limit int) ([]RecentVisit, error) {
	if role != model.RoleStaff || !rbac.CheckPermission(role, rbac.ResourceVisit, rbac.ActionView) {
		return nil, apperrors.ErrAccessDenied
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	visits, err := s.visits.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}

	rows := make([]RecentVisit, 0, len(visits))
	for i := range visits {
		visit := &visits[i]
		rows = append(rows, RecentVisit{
			ID:          visit.ID,
			PatientID:   visit.PatientID,
			PatientName: visit.Patient.FullName,
			VisitDate:   visit.VisitDate.Format("2006-01-02T15:04:05Z07:00"),
			VisitReason: visit.VisitReason,
			Symptoms:    visit.SymptomList(),
			Status:      string(visit.Status),
		})
	}

	if err := s.auditor.Record(ctx, model.AuditActionView, "visit_list", nil, map[string]interface{}{
		"count": len(rows),
	}); err != nil {
		return nil, err
	}

	return rows, nil
}

// GetVisit returns a single visit. Patients may only fetch their own.
func (s *visitService) GetVisit(ctx context.Context, role string, callerUserID, visitID uint) (*VisitDetail, error) {
	if !rbac.CheckPermission(role, rbac.ResourceVisit, rbac.ActionView) {
		return nil, apperrors.ErrAccessDenied
	}

	visit, err := s.visits.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrVisitNotFound
		}
		return nil, err
	}

	if role == model.RolePatient {
		patient, err := s.patients.FindByUserID(ctx, callerUserID)
		if err != nil || visit.PatientID != patient.ID {
			return nil, apperrors.ErrAccessDenied
		}
	}

	detail := &VisitDetail{
		ID:                 visit.ID,
		PatientName:        visit.Patient.FullName,
		VisitDate:          visit.VisitDate.Format("2006-01-02T15:04:05Z07:00"),
		VisitReason:        visit.VisitReason,
		VoiceTranscription: visit.VoiceTranscription,
		Symptoms:           visit.SymptomList(),
		PossibleCauses:     visit.PossibleCauseList(),
		PainLevel:          visit.PainLevel,
		PainDuration:       visit.PainDuration,
		Status:             string(visit.Status),
		AudioFile:          visit.AudioFilePath,
		AnalysisFile:       visit.AnalysisFilePath,
	}

	if err := s.auditor.Record(ctx, model.AuditActionView, "visit", &visit.ID, nil); err != nil {
		return nil, err
	}

	return detail, nil
}

// MyVisits returns all of the calling patient's visits, newest first.
// Patient role only.
func (s *visitService) MyVisits(ctx context.Context, role string, userID uint) ([]VisitSummary, error) {
	if role != model.RolePatient {
		return nil, apperrors.ErrAccessDenied
	}

	patient, err := s.patients.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPatientNotFound
		}
		return nil, err
	}

	visits, err := s.visits.FindByPatientID(ctx, patient.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	return visitSummaries(visits), nil
}

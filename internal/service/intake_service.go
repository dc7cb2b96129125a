package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medintake/internal/ai"
	"medintake/internal/audit"
	"medintake/internal/auth"
	"medintake/internal/crypto"
	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/rbac"
	"medintake/internal/repository"
	"medintake/internal/wizard"
)

const (
	defaultPainLevel    = 5
	defaultPainDuration = "day"
)

// AudioResult is the response of a completed audio round trip.
type AudioResult struct {
	Text         string       `json:"text"`
	Analysis     *ai.Analysis `json:"analysis"`
	AnalysisFile string       `json:"analysis_file"`
	VisitID      uint         `json:"visit_id"`
}

// InsuranceInput carries the insurance capture fields.
type InsuranceInput struct {
	InsuranceName     string
	InsuranceID       string
	Medications       string
	MedicalConditions string
}

// IntakeService drives the session-scoped intake wizard: reason capture,
// the audio pipeline, pain assessment and final confirmation. State is
// authoritative server-side, keyed by the login session.
type IntakeService interface {
	State(ctx context.Context, caller *auth.Payload) (*wizard.State, error)
	SubmitReason(ctx context.Context, caller *auth.Payload, reason string) (*wizard.State, error)
	ProcessAudio(ctx context.Context, caller *auth.Payload, audioPath, audioFilename string) (*AudioResult, error)
	SubmitPainAssessment(ctx context.Context, caller *auth.Payload, painLevel *int, duration string) (*wizard.State, error)
	SubmitConfirmation(ctx context.Context, caller *auth.Payload) (*wizard.State, error)
	SubmitInsurance(ctx context.Context, caller *auth.Payload, input InsuranceInput) error
}

type intakeService struct {
	patients    repository.PatientRepository
	visits      repository.VisitRepository
	insurance   repository.InsuranceRepository
	transcriber ai.Transcriber
	extractor   ai.Extractor
	archiver    ai.Archiver
	states      wizard.Store
	cipher      *crypto.Cipher
	auditor     audit.Recorder
	log         zerolog.Logger
}

// NewIntakeService creates a new intake service.
func NewIntakeService(
	patients repository.PatientRepository,
	visits repository.VisitRepository,
	insurance repository.InsuranceRepository,
	transcriber ai.Transcriber,
	extractor ai.Extractor,
	archiver ai.Archiver,
	states wizard.Store,
	cipher *crypto.Cipher,
	auditor audit.Recorder,
	log zerolog.Logger,
) IntakeService {
	return &intakeService{
		patients:    patients,
		visits:      visits,
		insurance:   insurance,
		transcriber: transcriber,
		extractor:   extractor,
		archiver:    archiver,
		states:      states,
		cipher:      cipher,
		auditor:     auditor,
		log:         log,
	}
}

// State returns the caller's wizard state; absent state reads as the start
// state, never an error, so pages stay independently reachable.
func (s *intakeService) State(ctx context.Context, caller *auth.Payload) (*wizard.State, error) {
	return s.states.Load(ctx, caller.SessionID)
}

// SubmitReason stores the free-text visit reason and advances the wizard.
// Resubmission overwrites.
func (s *intakeService) SubmitReason(ctx context.Context, caller *auth.Payload, reason string) (*wizard.State, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("reason is required")
	}

	state, err := s.states.Load(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}
	state.VisitReason = reason
	state.Advance(wizard.StepReasonCaptured)

	if err := s.states.Save(ctx, caller.SessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ProcessAudio runs the full pipeline: transcribe, extract, archive, then
// create the visit row and point the session at it. Any failure along the
// chain leaves the wizard untouched and persists nothing; the artifact is
// written before the visit row so the row never references a missing file.
func (s *intakeService) ProcessAudio(ctx context.Context, caller *auth.Payload, audioPath, audioFilename string) (*AudioResult, error) {
	if !rbac.CheckPermission(caller.Role, rbac.ResourceVisit, rbac.ActionCreate) {
		return nil, apperrors.ErrAccessDenied
	}

	patient, err := s.patients.FindByUserID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPatientNotFound
		}
		return nil, err
	}

	text, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	analysis, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	analysisFile, err := s.archiver.Archive(
		patient.FullName,
		patient.DateOfBirth.Format("2006-01-02"),
		text,
		analysis,
	)
	if err != nil {
		return nil, err
	}

	visit := &model.Visit{
		PatientID:          patient.ID,
		VisitDate:          time.Now(),
		VisitReason:        text,
		VoiceTranscription: text,
		PainLevel:          defaultPainLevel,
		PainDuration:       defaultPainDuration,
		AudioFilePath:      audioFilename,
		AnalysisFilePath:   analysisFile,
		Status:             model.VisitStatusPending,
	}
	visit.SetSymptoms(analysis.Symptoms)
	visit.SetPossibleCauses(analysis.PossibleCauses)

	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}

	if err := s.auditor.Record(ctx, model.AuditActionCreate, "visit", &visit.ID, map[string]interface{}{
		"patient_id": patient.ID,
		"has_audio":  true,
	}); err != nil {
		return nil, err
	}

	state, err := s.states.Load(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}
	state.VisitReason = text
	state.Symptoms = analysis.Symptoms
	state.CurrentVisitID = visit.ID
	state.Advance(wizard.StepAudioProcessed)
	if err := s.states.Save(ctx, caller.SessionID, state); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("visit_id", visit.ID).
		Uint("patient_id", patient.ID).
		Int("symptoms", len(analysis.Symptoms)).
		Msg("audio processed")

	return &AudioResult{
		Text:         text,
		Analysis:     analysis,
		AnalysisFile: analysisFile,
		VisitID:      visit.ID,
	}, nil
}

// SubmitPainAssessment records pain level and duration. Missing values take
// the defaults (5, "day"). If the session points at a visit the values land
// on its row; otherwise they stay session-only, which covers staff-driven
// flows without voice capture. Resubmission overwrites.
func (s *intakeService) SubmitPainAssessment(ctx context.Context, caller *auth.Payload, painLevel *int, duration string) (*wizard.State, error) {
	level := defaultPainLevel
	if painLevel != nil {
		level = *painLevel
	}
	if level < 0 || level > 10 {
		return nil, apperrors.NewValidationError("pain_level must be between 0 and 10")
	}
	if duration == "" {
		duration = defaultPainDuration
	}

	state, err := s.states.Load(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}

	if state.CurrentVisitID != 0 {
		visit, err := s.visits.FindByID(ctx, state.CurrentVisitID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			// Session points at a visit that no longer exists; keep the
			// values session-only.
		} else {
			visit.PainLevel = level
			visit.PainDuration = duration
			if err := s.visits.Update(ctx, visit); err != nil {
				return nil, fmt.Errorf("update visit pain fields: %w", err)
			}
			if err := s.auditor.Record(ctx, model.AuditActionUpdate, "visit", &visit.ID, map[string]interface{}{
				"pain_level": level,
			}); err != nil {
				return nil, err
			}
		}
	}

	state.PainLevel = level
	state.PainDuration = duration
	state.Advance(wizard.StepPainAssessed)
	if err := s.states.Save(ctx, caller.SessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SubmitConfirmation confirms the current visit. This is the single durable
// commit point; everything before it is overwritable by resubmission.
func (s *intakeService) SubmitConfirmation(ctx context.Context, caller *auth.Payload) (*wizard.State, error) {
	state, err := s.states.Load(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}

	if state.CurrentVisitID != 0 {
		visit, err := s.visits.FindByID(ctx, state.CurrentVisitID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else {
			visit.Status = model.VisitStatusConfirmed
			if err := s.visits.Update(ctx, visit); err != nil {
				return nil, fmt.Errorf("confirm visit: %w", err)
			}
			if err := s.auditor.Record(ctx, model.AuditActionUpdate, "visit", &visit.ID, map[string]interface{}{
				"status": string(model.VisitStatusConfirmed),
			}); err != nil {
				return nil, err
			}
		}
	}

	state.Advance(wizard.StepVisitConfirmed)
	state.Advance(wizard.StepAppointmentConfirmed)
	if err := s.states.Save(ctx, caller.SessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SubmitInsurance captures or replaces the caller's insurance details.
// The insurance ID is encrypted before it is stored and never persisted in
// plaintext.
func (s *intakeService) SubmitInsurance(ctx context.Context, caller *auth.Payload, input InsuranceInput) error {
	if !rbac.CheckPermission(caller.Role, rbac.ResourceInsurance, rbac.ActionUpdate) {
		return apperrors.ErrAccessDenied
	}

	patient, err := s.patients.FindByUserID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrPatientNotFound
		}
		return err
	}

	insurance, err := s.insurance.FindByPatientID(ctx, patient.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load insurance: %w", err)
		}
		insurance = &model.Insurance{PatientID: patient.ID}
	}

	insurance.InsuranceName = input.InsuranceName
	insurance.Medications = input.Medications
	insurance.MedicalConditions = input.MedicalConditions
	if input.InsuranceID != "" {
		encrypted, err := s.cipher.Encrypt(input.InsuranceID)
		if err != nil {
			return fmt.Errorf("encrypt insurance id: %w", err)
		}
		insurance.EncryptedInsuranceID = encrypted
	}

	if err := s.insurance.Save(ctx, insurance); err != nil {
		return fmt.Errorf("save insurance: %w", err)
	}

	return s.auditor.Record(ctx, model.AuditActionUpdate, "insurance", &insurance.ID, nil)
}

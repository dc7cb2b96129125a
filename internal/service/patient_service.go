package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"medintake/internal/audit"
	"medintake/internal/crypto"
	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/rbac"
	"medintake/internal/repository"
)

// PatientSummary is one row of the staff patient listing.
type PatientSummary struct {
	ID          uint    `json:"id"`
	FullName    string  `json:"full_name"`
	DateOfBirth string  `json:"date_of_birth"`
	Phone       string  `json:"phone"`
	LastVisit   *string `json:"last_visit"`
}

// InsuranceDetail is the insurance block of a patient detail response.
// InsuranceID is populated (decrypted) for staff callers only.
type InsuranceDetail struct {
	InsuranceName     string `json:"insurance_name"`
	Medications       string `json:"medications"`
	MedicalConditions string `json:"medical_conditions"`
	InsuranceID       string `json:"insurance_id,omitempty"`
}

// VisitSummary is the compact visit shape embedded in patient responses.
type VisitSummary struct {
	ID          uint     `json:"id"`
	VisitDate   string   `json:"visit_date"`
	VisitReason string   `json:"visit_reason"`
	Symptoms    []string `json:"symptoms"`
	Status      string   `json:"status"`
}

// PatientDetail is the full patient record returned to authorized callers.
type PatientDetail struct {
	ID          uint             `json:"id"`
	FullName    string           `json:"full_name"`
	DateOfBirth string           `json:"date_of_birth"`
	Phone       string           `json:"phone"`
	Address     string           `json:"address"`
	Email       string           `json:"email"`
	Visits      []VisitSummary   `json:"visits"`
	Insurance   *InsuranceDetail `json:"insurance,omitempty"`
}

// PatientProfile is the patient's own view: profile plus recent visits.
type PatientProfile struct {
	FullName     string         `json:"full_name"`
	DateOfBirth  string         `json:"date_of_birth"`
	Phone        string         `json:"phone"`
	RecentVisits []VisitSummary `json:"recent_visits"`
}

// PatientService exposes patient read operations with role and ownership
// checks applied.
type PatientService interface {
	ListAll(ctx context.Context, role string) ([]PatientSummary, error)
	GetPatient(ctx context.Context, role string, callerUserID, patientID uint) (*PatientDetail, error)
	MyProfile(ctx context.Context, role string, userID uint) (*PatientProfile, error)
}

type patientService struct {
	patients  repository.PatientRepository
	visits    repository.VisitRepository
	insurance repository.InsuranceRepository
	cipher    *crypto.Cipher
	auditor   audit.Recorder
}

// NewPatientService creates a new patient service.
func NewPatientService(
	patients repository.PatientRepository,
	visits repository.VisitRepository,
	insurance repository.InsuranceRepository,
	cipher *crypto.Cipher,
	auditor audit.Recorder,
) PatientService {
	return &patientService{
		patients:  patients,
		visits:    visits,
		insurance: insurance,
		cipher:    cipher,
		auditor:   auditor,
	}
}

// ListAll returns every patient with their last visit timestamp. Staff only.
func (s *patientService) ListAll(ctx context.Context, role string) ([]PatientSummary, error) {
	if role != model.RoleStaff || !rbac.CheckPermission(role, rbac.ResourcePatient, rbac.ActionView) {
		return nil, apperrors.ErrAccessDenied
	}

	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	summaries := make([]PatientSummary, 0, len(patients))
	for _, patient := range patients {
		summary := PatientSummary{
			ID:          patient.ID,
			FullName:    patient.FullName,
			DateOfBirth: patient.DateOfBirth.Format("2006-01-02"),
			Phone:       patient.Phone,
		}
		last, err := s.visits.LastVisit(ctx, patient.ID)
		if err != nil {
			return nil, fmt.Errorf("last visit for patient %d: %w", patient.ID, err)
		}
		if last != nil {
			formatted := last.VisitDate.Format("2006-01-02T15:04:05Z07:00")
			summary.LastVisit = &formatted
		}
		summaries = append(summaries, summary)
	}

	if err := s.auditor.Record(ctx, model.AuditActionView, "patient_list", nil, map[string]interface{}{
		"count": len(summaries),
	}); err != nil {
		return nil, err
	}

	return summaries, nil
}

// GetPatient returns the full record. Patients may only fetch their own;
// staff are unrestricted and additionally see the decrypted insurance ID.
func (s *patientService) GetPatient(ctx context.Context, role string, callerUserID, patientID uint) (*PatientDetail, error) {
	if !rbac.CheckPermission(role, rbac.ResourcePatient, rbac.ActionView) {
		return nil, apperrors.ErrAccessDenied
	}

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPatientNotFound
		}
		return nil, err
	}

	// Row-level ownership: the coarse gate allows "view", but a patient
	// may still only see their own record.
	if role == model.RolePatient && patient.UserID != callerUserID {
		return nil, apperrors.ErrAccessDenied
	}

	visits, err := s.visits.FindByPatientID(ctx, patient.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	detail := &PatientDetail{
		ID:          patient.ID,
		FullName:    patient.FullName,
		DateOfBirth: patient.DateOfBirth.Format("2006-01-02"),
		Phone:       patient.Phone,
		Address:     patient.Address,
		Email:       patient.User.Email,
		Visits:      visitSummaries(visits),
	}

	insurance, err := s.insurance.FindByPatientID(ctx, patient.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load insurance: %w", err)
	}
	if insurance != nil {
		detail.Insurance = &InsuranceDetail{
			InsuranceName:     insurance.InsuranceName,
			Medications:       insurance.Medications,
			MedicalConditions: insurance.MedicalConditions,
		}
		if role == model.RoleStaff && insurance.EncryptedInsuranceID != "" {
			decrypted, err := s.cipher.Decrypt(insurance.EncryptedInsuranceID)
			if err != nil {
				return nil, fmt.Errorf("decrypt insurance id: %w", err)
			}
			detail.Insurance.InsuranceID = decrypted
		}
	}

	if err := s.auditor.Record(ctx, model.AuditActionView, "patient", &patient.ID, nil); err != nil {
		return nil, err
	}

	return detail, nil
}

// MyProfile returns the calling patient's own profile with the five most
// recent visits. Patient role only.
func (s *patientService) MyProfile(ctx context.Context, role string, userID uint) (*PatientProfile, error) {
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

	visits, err := s.visits.FindByPatientID(ctx, patient.ID, 5)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	return &PatientProfile{
		FullName:     patient.FullName,
		DateOfBirth:  patient.DateOfBirth.Format("2006-01-02"),
		Phone:        patient.Phone,
		RecentVisits: visitSummaries(visits),
	}, nil
}

func visitSummaries(visits []model.Visit) []VisitSummary {
	summaries := make([]VisitSummary, 0, len(visits))
	for i := range visits {
		visit := &visits[i]
		summaries = append(summaries, VisitSummary{
			ID:          visit.ID,
			VisitDate:   visit.VisitDate.Format("2006-01-02T15:04:05Z07:00"),
			VisitReason: visit.VisitReason,
			Symptoms:    visit.SymptomList(),
			Status:      string(visit.Status),
		})
	}
	return summaries
}

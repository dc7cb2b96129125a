package repository

import (
	"context"

	"gorm.io/gorm"

	"medintake/internal/model"
)

// PatientRepository defines patient persistence operations.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Update(ctx context.Context, patient *model.Patient) error
	FindByID(ctx context.Context, id uint) (*model.Patient, error)
	FindByUserID(ctx context.Context, userID uint) (*model.Patient, error)
	ListAll(ctx context.Context) ([]model.Patient, error)
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	return r.db.WithContext(ctx).Save(patient).Error
}

func (r *patientRepository) FindByID(ctx context.Context, id uint) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByUserID(ctx context.Context, userID uint) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) ListAll(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := r.db.WithContext(ctx).Order("id").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

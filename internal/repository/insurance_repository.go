package repository

import (
	"context"

	"gorm.io/gorm"

	"medintake/internal/model"
)

// InsuranceRepository defines insurance persistence operations.
type InsuranceRepository interface {
	Save(ctx context.Context, insurance *model.Insurance) error
	FindByPatientID(ctx context.Context, patientID uint) (*model.Insurance, error)
}

type insuranceRepository struct {
	db *gorm.DB
}

// NewInsuranceRepository creates a new insurance repository.
func NewInsuranceRepository(db *gorm.DB) InsuranceRepository {
	return &insuranceRepository{db: db}
}

// Save inserts or updates the patient's single insurance row.
func (r *insuranceRepository) Save(ctx context.Context, insurance *model.Insurance) error {
	return r.db.WithContext(ctx).Save(insurance).Error
}

func (r *insuranceRepository) FindByPatientID(ctx context.Context, patientID uint) (*model.Insurance, error) {
	var insurance model.Insurance
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&insurance).Error; err != nil {
		return nil, err
	}
	return &insurance, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"medintake/internal/model"
)

// VisitRepository defines visit persistence operations.
type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	Update(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id uint) (*model.Visit, error)
	FindByPatientID(ctx context.Context, patientID uint, limit int) ([]model.Visit, error)
	FindRecent(ctx context.Context, limit int) ([]model.Visit, error)
	LastVisit(ctx context.Context, patientID uint) (*model.Visit, error)
}

type visitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new visit repository.
func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	return r.db.WithContext(ctx).Save(visit).Error
}

func (r *visitRepository) FindByID(ctx context.Context, id uint) (*model.Visit, error) {
	var visit model.Visit
	if err := r.db.WithContext(ctx).Preload("Patient").Where("id = ?", id).First(&visit).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

// FindByPatientID returns the patient's visits newest first. limit <= 0
// means no limit.
func (r *visitRepository) FindByPatientID(ctx context.Context, patientID uint, limit int) ([]model.Visit, error) {
	var visits []model.Visit
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("visit_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// FindRecent returns the newest visits across all patients with patient
// rows preloaded for name display.
func (r *visitRepository) FindRecent(ctx context.Context, limit int) ([]model.Visit, error) {
	var visits []model.Visit
	if err := r.db.WithContext(ctx).Preload("Patient").
		Order("visit_date DESC").Limit(limit).Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *visitRepository) LastVisit(ctx context.Context, patientID uint) (*model.Visit, error) {
	var visit model.Visit
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).
		Order("visit_date DESC").First(&visit).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

package repo

import (
	"blueprint"
	"blueprint/internal/api/models"
	"context"

	"gorm.io/gorm"
)

type RunRepository struct {
	Db *gorm.DB
}

func NewRunRepository() *RunRepository {
	return &RunRepository{Db: blueprint.DB}
}

// Create inserts a finished run.
func (slf *RunRepository) Create(ctx context.Context, run *models.Run) error {
	return slf.Db.WithContext(ctx).Create(run).Error
}

// FindByID retrieves a run by ID
func (slf *RunRepository) FindByID(ctx context.Context, id string) (models.Run, error) {
	var run models.Run
	err := slf.Db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	return run, err
}

// FindByIdempotencyKey returns the run first stored under key.
func (slf *RunRepository) FindByIdempotencyKey(ctx context.Context, key string) (models.Run, error) {
	var run models.Run
	err := slf.Db.WithContext(ctx).Where("idempotency_key = ?", key).First(&run).Error
	return run, err
}

// List returns the most recent runs, newest first.
func (slf *RunRepository) List(ctx context.Context, limit int) ([]models.Run, error) {
	var runs []models.Run
	err := slf.Db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

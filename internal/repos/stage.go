package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type StageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *types.Stage) (*types.Stage, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Stage, error)
	GetByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) ([]*types.Stage, error)
	GetFirstByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) (*types.Stage, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, order int) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type stageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	repoLog := baseLog.With("repo", "StageRepo")
	return &stageRepo{db: db, log: repoLog}
}

func (r *stageRepo) Create(ctx context.Context, tx *gorm.DB, s *types.Stage) (*types.Stage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *stageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Stage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Stage
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// GetByPipelineID returns the pipeline's active stages sorted ascending by
// order. Every caller depends on this sort; do not remove it.
func (r *stageRepo) GetByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) ([]*types.Stage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Stage
	if err := transaction.WithContext(ctx).
		Where("pipeline_id = ? AND active = ?", pipelineID, true).
		Order("stage_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stageRepo) GetFirstByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) (*types.Stage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Stage
	if err := transaction.WithContext(ctx).
		Where("pipeline_id = ? AND active = ?", pipelineID, true).
		Order("stage_order ASC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *stageRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Stage{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

func (r *stageRepo) UpdateOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, order int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Stage{}).
		Where("id = ?", id).
		Update("stage_order", order).Error; err != nil {
		return err
	}
	return nil
}

func (r *stageRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Stage{}).Error; err != nil {
		return err
	}
	return nil
}

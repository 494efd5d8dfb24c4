package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type PipelineRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.Pipeline) (*types.Pipeline, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Pipeline, error)
	GetActiveByFormTypeID(ctx context.Context, tx *gorm.DB, formTypeID uuid.UUID) (*types.Pipeline, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Pipeline, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type pipelineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPipelineRepo(db *gorm.DB, baseLog *logger.Logger) PipelineRepo {
	repoLog := baseLog.With("repo", "PipelineRepo")
	return &pipelineRepo{db: db, log: repoLog}
}

func (r *pipelineRepo) Create(ctx context.Context, tx *gorm.DB, p *types.Pipeline) (*types.Pipeline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pipelineRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Pipeline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Pipeline
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pipelineRepo) GetActiveByFormTypeID(ctx context.Context, tx *gorm.DB, formTypeID uuid.UUID) (*types.Pipeline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Pipeline
	if err := transaction.WithContext(ctx).
		Where("form_type_id = ? AND active = ?", formTypeID, true).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pipelineRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Pipeline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Pipeline
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pipelineRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Pipeline{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type FormTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ft *types.FormType) (*types.FormType, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormType, error)
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FormType, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.FormType, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type formTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormTypeRepo(db *gorm.DB, baseLog *logger.Logger) FormTypeRepo {
	repoLog := baseLog.With("repo", "FormTypeRepo")
	return &formTypeRepo{db: db, log: repoLog}
}

func (r *formTypeRepo) Create(ctx context.Context, tx *gorm.DB, ft *types.FormType) (*types.FormType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(ft).Error; err != nil {
		return nil, err
	}
	return ft, nil
}

func (r *formTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.FormType
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *formTypeRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FormType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.FormType
	if err := transaction.WithContext(ctx).
		Where("key = ?", key).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *formTypeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.FormType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FormType
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formTypeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.FormType{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

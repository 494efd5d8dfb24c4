package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// ContactFilter narrows List results; zero values mean "no filter".
type ContactFilter struct {
	FormTypeID *uuid.UUID
	StageID    *uuid.UUID
	Status     string
	Limit      int
	Offset     int
}

type ContactRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.Contact) (*types.Contact, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Contact, error)
	List(ctx context.Context, tx *gorm.DB, filter ContactFilter) ([]*types.Contact, error)
	GetByStageID(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) ([]*types.Contact, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	repoLog := baseLog.With("repo", "ContactRepo")
	return &contactRepo{db: db, log: repoLog}
}

func (r *contactRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Contact) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contactRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Contact
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *contactRepo) List(ctx context.Context, tx *gorm.DB, filter ContactFilter) ([]*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Model(&types.Contact{})
	if filter.FormTypeID != nil {
		q = q.Where("form_type_id = ?", *filter.FormTypeID)
	}
	if filter.StageID != nil {
		q = q.Where("stage_id = ?", *filter.StageID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var results []*types.Contact
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contactRepo) GetByStageID(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) ([]*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Contact
	if err := transaction.WithContext(ctx).
		Where("stage_id = ?", stageID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

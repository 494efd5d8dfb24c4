package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type SubmissionRepo interface {
	CreateNewsletterSignup(ctx context.Context, tx *gorm.DB, s *types.NewsletterSignup) (*types.NewsletterSignup, error)
	CreatePreRegistration(ctx context.Context, tx *gorm.DB, p *types.PreRegistration) (*types.PreRegistration, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	repoLog := baseLog.With("repo", "SubmissionRepo")
	return &submissionRepo{db: db, log: repoLog}
}

func (r *submissionRepo) CreateNewsletterSignup(ctx context.Context, tx *gorm.DB, s *types.NewsletterSignup) (*types.NewsletterSignup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *submissionRepo) CreatePreRegistration(ctx context.Context, tx *gorm.DB, p *types.PreRegistration) (*types.PreRegistration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

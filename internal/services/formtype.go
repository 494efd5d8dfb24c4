package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// FormTypeService exposes the form types contacts are grouped under. Rows are
// seeded from the catalog or created out of band; this service only reads and
// toggles them.
type FormTypeService interface {
	List(ctx context.Context) ([]*types.FormType, error)
	Get(ctx context.Context, id uuid.UUID) (*types.FormType, error)
	GetByKey(ctx context.Context, key string) (*types.FormType, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.FormType, error)
}

type formTypeService struct {
	log       *logger.Logger
	formTypes repos.FormTypeRepo
}

func NewFormTypeService(baseLog *logger.Logger, formTypes repos.FormTypeRepo) FormTypeService {
	return &formTypeService{
		log:       baseLog.With("service", "FormTypeService"),
		formTypes: formTypes,
	}
}

func (s *formTypeService) List(ctx context.Context) ([]*types.FormType, error) {
	list, err := s.formTypes.List(ctx, nil)
	if err != nil {
		return nil, apperr.Store("list form types", err)
	}
	return list, nil
}

func (s *formTypeService) Get(ctx context.Context, id uuid.UUID) (*types.FormType, error) {
	ft, err := s.formTypes.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("form type", id)
		}
		return nil, apperr.Store("get form type", err)
	}
	return ft, nil
}

func (s *formTypeService) GetByKey(ctx context.Context, key string) (*types.FormType, error) {
	ft, err := s.formTypes.GetByKey(ctx, nil, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("form type", key)
		}
		return nil, apperr.Store("get form type", err)
	}
	return ft, nil
}

func (s *formTypeService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.FormType, error) {
	ft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"active":     active,
		"updated_at": time.Now().UTC(),
	}
	if err := s.formTypes.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, apperr.Store("update form type", err)
	}
	ft.Active = active
	s.log.Info("Form type toggled", "form_type_id", id, "active", active)
	return ft, nil
}

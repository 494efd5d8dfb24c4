package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/observability"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// StageUpdate is a field-level patch; nil means "leave alone". An Order
// change is routed through the ordering engine, never written raw.
type StageUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Order       *int
	Active      *bool
}

type PipelineService interface {
	CreatePipeline(ctx context.Context, formTypeID uuid.UUID, name, description string) (*types.Pipeline, error)
	GetPipeline(ctx context.Context, id uuid.UUID) (*types.Pipeline, error)
	ListPipelines(ctx context.Context) ([]*types.Pipeline, error)
	CreateStage(ctx context.Context, pipelineID uuid.UUID, name, description, color string) (*types.Stage, error)
	UpdateStage(ctx context.Context, stageID uuid.UUID, update StageUpdate) (*types.Stage, error)
	DeleteStage(ctx context.Context, stageID uuid.UUID) error
	ListStages(ctx context.Context, pipelineID uuid.UUID) ([]*types.Stage, error)
	NormalizePipeline(ctx context.Context, pipelineID uuid.UUID) error
}

type pipelineService struct {
	db        *gorm.DB
	log       *logger.Logger
	formTypes repos.FormTypeRepo
	pipelines repos.PipelineRepo
	stages    repos.StageRepo
	contacts  repos.ContactRepo
	history   repos.HistoryRepo
}

func NewPipelineService(db *gorm.DB, baseLog *logger.Logger, formTypes repos.FormTypeRepo, pipelines repos.PipelineRepo, stages repos.StageRepo, contacts repos.ContactRepo, history repos.HistoryRepo) PipelineService {
	return &pipelineService{
		db:        db,
		log:       baseLog.With("service", "PipelineService"),
		formTypes: formTypes,
		pipelines: pipelines,
		stages:    stages,
		contacts:  contacts,
		history:   history,
	}
}

func (s *pipelineService) CreatePipeline(ctx context.Context, formTypeID uuid.UUID, name, description string) (*types.Pipeline, error) {
	if name == "" {
		return nil, apperr.Validation("pipeline name is required")
	}
	if _, err := s.formTypes.GetByID(ctx, nil, formTypeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("form type", formTypeID)
		}
		return nil, apperr.Store("get form type", err)
	}

	existing, err := s.pipelines.GetActiveByFormTypeID(ctx, nil, formTypeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Store("check active pipeline", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("form type %s already has an active pipeline %s", formTypeID, existing.ID)
	}

	p := &types.Pipeline{
		FormTypeID:  formTypeID,
		Name:        name,
		Description: description,
		Active:      true,
	}
	if _, err := s.pipelines.Create(ctx, nil, p); err != nil {
		return nil, apperr.Store("create pipeline", err)
	}
	s.log.Info("Pipeline created", "pipeline_id", p.ID, "form_type_id", formTypeID)
	return p, nil
}

func (s *pipelineService) GetPipeline(ctx context.Context, id uuid.UUID) (*types.Pipeline, error) {
	p, err := s.pipelines.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pipeline", id)
		}
		return nil, apperr.Store("get pipeline", err)
	}
	return p, nil
}

func (s *pipelineService) ListPipelines(ctx context.Context) ([]*types.Pipeline, error) {
	list, err := s.pipelines.List(ctx, nil)
	if err != nil {
		return nil, apperr.Store("list pipelines", err)
	}
	return list, nil
}

func (s *pipelineService) CreateStage(ctx context.Context, pipelineID uuid.UUID, name, description, color string) (*types.Stage, error) {
	if name == "" {
		return nil, apperr.Validation("stage name is required")
	}
	if _, err := s.pipelines.GetByID(ctx, nil, pipelineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pipeline", pipelineID)
		}
		return nil, apperr.Store("get pipeline", err)
	}

	siblings, err := s.stages.GetByPipelineID(ctx, nil, pipelineID)
	if err != nil {
		return nil, apperr.Store("list stages", err)
	}
	maxOrder := 0
	for _, st := range siblings {
		if st.Order > maxOrder {
			maxOrder = st.Order
		}
	}

	// New stages always append; no sibling shift is ever needed here.
	stage := &types.Stage{
		PipelineID:  pipelineID,
		Name:        name,
		Description: description,
		Color:       color,
		Order:       maxOrder + 1,
		Active:      true,
	}
	if _, err := s.stages.Create(ctx, nil, stage); err != nil {
		return nil, apperr.Store("create stage", err)
	}
	s.log.Info("Stage created", "stage_id", stage.ID, "pipeline_id", pipelineID, "order", stage.Order)
	return stage, nil
}

func (s *pipelineService) UpdateStage(ctx context.Context, stageID uuid.UUID, update StageUpdate) (*types.Stage, error) {
	stage, err := s.stages.GetByID(ctx, nil, stageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stage", stageID)
		}
		return nil, apperr.Store("get stage", err)
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperr.Validation("stage name cannot be empty")
		}
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Color != nil {
		fields["color"] = *update.Color
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
		if err := s.stages.UpdateFields(ctx, nil, stageID, fields); err != nil {
			return nil, apperr.Store("update stage", err)
		}
	}

	// Out-of-range targets clamp to the ends, same as the planner.
	if update.Order != nil {
		if err := s.applyMove(ctx, stage.PipelineID, stageID, *update.Order); err != nil {
			return nil, err
		}
	}

	// An active flip changes the membership of the ordered set, so it is
	// never written as a raw field.
	if update.Active != nil && *update.Active != stage.Active {
		var err error
		if *update.Active {
			err = s.reactivateStage(ctx, stage)
		} else {
			err = s.deactivateStage(ctx, stage)
		}
		if err != nil {
			return nil, err
		}
	}

	// Callers refresh their stage cache after mutation; return the re-read row.
	fresh, err := s.stages.GetByID(ctx, nil, stageID)
	if err != nil {
		return nil, apperr.Store("reload stage", err)
	}
	return fresh, nil
}

// applyMove plans and applies one reorder batch. The batch runs inside a
// transaction when one is available; on a store failure the move is retried
// exactly once against freshly re-read state, never by replaying the stale
// batch.
func (s *pipelineService) applyMove(ctx context.Context, pipelineID, stageID uuid.UUID, target int) error {
	planAndApply := func() error {
		stages, err := s.stages.GetByPipelineID(ctx, nil, pipelineID)
		if err != nil {
			return apperr.Store("list stages", err)
		}
		updates, err := PlanMove(stages, stageID, target)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return s.applyOrderBatch(ctx, updates)
	}

	err := planAndApply()
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrStore) {
		return err
	}
	observability.StageReorderRetriesTotal.Inc()
	s.log.Warn("Stage reorder batch failed, retrying from re-read state", "pipeline_id", pipelineID, "stage_id", stageID, "error", err)
	return planAndApply()
}

func (s *pipelineService) applyOrderBatch(ctx context.Context, updates []StageOrderUpdate) error {
	apply := func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := s.stages.UpdateOrder(ctx, tx, u.StageID, u.Order); err != nil {
				return err
			}
		}
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Transaction(func(tx *gorm.DB) error { return apply(tx) })
	} else {
		err = apply(nil)
	}
	if err != nil {
		return apperr.Store("apply stage order batch", err)
	}
	return nil
}

// deactivateStage takes the stage out of the active order set. The remaining
// active stages renumber exactly as they do on delete, and contacts parked on
// the stage move to the pipeline's first remaining active stage (unassigned
// when none is left), each with a stage-changed history entry.
func (s *pipelineService) deactivateStage(ctx context.Context, stage *types.Stage) error {
	siblings, err := s.stages.GetByPipelineID(ctx, nil, stage.PipelineID)
	if err != nil {
		return apperr.Store("list stages", err)
	}
	updates := PlanRemoval(siblings, stage.ID)

	var fallback *types.Stage
	for _, st := range siblings {
		if st.ID == stage.ID {
			continue
		}
		if fallback == nil || st.Order < fallback.Order {
			fallback = st
		}
	}

	orphans, err := s.contacts.GetByStageID(ctx, nil, stage.ID)
	if err != nil {
		return apperr.Store("list contacts on stage", err)
	}

	apply := func(tx *gorm.DB) error {
		if err := s.stages.UpdateFields(ctx, tx, stage.ID, map[string]interface{}{
			"active":     false,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return err
		}
		for _, u := range updates {
			if err := s.stages.UpdateOrder(ctx, tx, u.StageID, u.Order); err != nil {
				return err
			}
		}
		for _, c := range orphans {
			fields := map[string]interface{}{"updated_at": time.Now().UTC()}
			if fallback != nil {
				fields["stage_id"] = fallback.ID
			} else {
				fields["stage_id"] = nil
			}
			if err := s.contacts.UpdateFields(ctx, tx, c.ID, fields); err != nil {
				return err
			}
		}
		return nil
	}
	if s.db != nil {
		err = s.db.Transaction(func(tx *gorm.DB) error { return apply(tx) })
	} else {
		err = apply(nil)
	}
	if err != nil {
		return apperr.Store("deactivate stage", err)
	}

	for _, c := range orphans {
		desc := "stage deactivated; contact left unassigned"
		after := map[string]any{"stage_id": nil}
		if fallback != nil {
			desc = "stage deactivated; contact moved to " + fallback.Name
			after["stage_id"] = fallback.ID
		}
		entry := &types.HistoryEntry{
			ContactID:   c.ID,
			Kind:        types.HistoryKindStageChanged,
			Description: desc,
			Before:      mustJSON(map[string]any{"stage_id": stage.ID}),
			After:       mustJSON(after),
		}
		if _, err := s.history.Create(ctx, nil, entry); err != nil {
			s.log.Warn("History append failed after stage deactivation", "contact_id", c.ID, "error", err)
		}
	}

	s.log.Info("Stage deactivated", "stage_id", stage.ID, "pipeline_id", stage.PipelineID, "reassigned_contacts", len(orphans))
	return nil
}

// reactivateStage puts the stage back at the end of the sequence. Its
// pre-deactivation order is stale by then and could collide with a sibling,
// so it never rejoins at the old position.
func (s *pipelineService) reactivateStage(ctx context.Context, stage *types.Stage) error {
	siblings, err := s.stages.GetByPipelineID(ctx, nil, stage.PipelineID)
	if err != nil {
		return apperr.Store("list stages", err)
	}
	maxOrder := 0
	for _, st := range siblings {
		if st.ID != stage.ID && st.Order > maxOrder {
			maxOrder = st.Order
		}
	}

	apply := func(tx *gorm.DB) error {
		if err := s.stages.UpdateFields(ctx, tx, stage.ID, map[string]interface{}{
			"active":     true,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return err
		}
		return s.stages.UpdateOrder(ctx, tx, stage.ID, maxOrder+1)
	}
	if s.db != nil {
		err = s.db.Transaction(func(tx *gorm.DB) error { return apply(tx) })
	} else {
		err = apply(nil)
	}
	if err != nil {
		return apperr.Store("reactivate stage", err)
	}

	s.log.Info("Stage reactivated", "stage_id", stage.ID, "pipeline_id", stage.PipelineID, "order", maxOrder+1)
	return nil
}

// DeleteStage removes the stage, renumbers everything after it down by one,
// and reassigns contacts that pointed at it to the pipeline's first remaining
// stage (nil when none is left). Each reassigned contact gets a stage-changed
// history entry; those appends are best-effort.
func (s *pipelineService) DeleteStage(ctx context.Context, stageID uuid.UUID) error {
	stage, err := s.stages.GetByID(ctx, nil, stageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("stage", stageID)
		}
		return apperr.Store("get stage", err)
	}

	stages, err := s.stages.GetByPipelineID(ctx, nil, stage.PipelineID)
	if err != nil {
		return apperr.Store("list stages", err)
	}
	updates := PlanRemoval(stages, stageID)

	var fallback *types.Stage
	for _, st := range stages {
		if st.ID == stageID {
			continue
		}
		if fallback == nil || st.Order < fallback.Order {
			fallback = st
		}
	}

	orphans, err := s.contacts.GetByStageID(ctx, nil, stageID)
	if err != nil {
		return apperr.Store("list contacts on stage", err)
	}

	apply := func(tx *gorm.DB) error {
		if err := s.stages.Delete(ctx, tx, stageID); err != nil {
			return err
		}
		for _, u := range updates {
			if err := s.stages.UpdateOrder(ctx, tx, u.StageID, u.Order); err != nil {
				return err
			}
		}
		for _, c := range orphans {
			fields := map[string]interface{}{"updated_at": time.Now().UTC()}
			if fallback != nil {
				fields["stage_id"] = fallback.ID
			} else {
				fields["stage_id"] = nil
			}
			if err := s.contacts.UpdateFields(ctx, tx, c.ID, fields); err != nil {
				return err
			}
		}
		return nil
	}
	if s.db != nil {
		err = s.db.Transaction(func(tx *gorm.DB) error { return apply(tx) })
	} else {
		err = apply(nil)
	}
	if err != nil {
		return apperr.Store("delete stage", err)
	}

	for _, c := range orphans {
		desc := "stage removed; contact left unassigned"
		after := map[string]any{"stage_id": nil}
		if fallback != nil {
			desc = "stage removed; contact moved to " + fallback.Name
			after["stage_id"] = fallback.ID
		}
		entry := &types.HistoryEntry{
			ContactID:   c.ID,
			Kind:        types.HistoryKindStageChanged,
			Description: desc,
			Before:      mustJSON(map[string]any{"stage_id": stageID}),
			After:       mustJSON(after),
		}
		if _, err := s.history.Create(ctx, nil, entry); err != nil {
			s.log.Warn("History append failed after stage delete", "contact_id", c.ID, "error", err)
		}
	}

	s.log.Info("Stage deleted", "stage_id", stageID, "pipeline_id", stage.PipelineID, "reassigned_contacts", len(orphans))
	return nil
}

// ListStages returns the pipeline's stages sorted ascending by order. If a
// read ever surfaces duplicated or gapped orders the sequence is repaired in
// place before returning; corruption must not reach the admin surface.
func (s *pipelineService) ListStages(ctx context.Context, pipelineID uuid.UUID) ([]*types.Stage, error) {
	if _, err := s.pipelines.GetByID(ctx, nil, pipelineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pipeline", pipelineID)
		}
		return nil, apperr.Store("get pipeline", err)
	}

	stages, err := s.stages.GetByPipelineID(ctx, nil, pipelineID)
	if err != nil {
		return nil, apperr.Store("list stages", err)
	}
	if OrdersContiguous(stages) {
		return stages, nil
	}

	s.log.Warn("Stage order invariant violated, repairing", "pipeline_id", pipelineID)
	if err := s.NormalizePipeline(ctx, pipelineID); err != nil {
		return nil, err
	}
	stages, err = s.stages.GetByPipelineID(ctx, nil, pipelineID)
	if err != nil {
		return nil, apperr.Store("list stages", err)
	}
	return stages, nil
}

func (s *pipelineService) NormalizePipeline(ctx context.Context, pipelineID uuid.UUID) error {
	stages, err := s.stages.GetByPipelineID(ctx, nil, pipelineID)
	if err != nil {
		return apperr.Store("list stages", err)
	}
	updates := Normalize(stages)
	if len(updates) == 0 {
		return nil
	}
	return s.applyOrderBatch(ctx, updates)
}

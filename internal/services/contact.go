package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/observability"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/requestdata"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// ContactService routes contacts between stages and lifecycle labels. Every
// mutation is two-phase: the contact write commits first, then exactly one
// history entry is appended. A failed append is logged and swallowed — the
// primary mutation is never rolled back or reported as failed because the
// audit trail lagged.
type ContactService interface {
	AssignToStage(ctx context.Context, contactID, stageID uuid.UUID) (*types.Contact, error)
	SetStatus(ctx context.Context, contactID uuid.UUID, status string) (*types.Contact, error)
	SetPriority(ctx context.Context, contactID uuid.UUID, priority string) (*types.Contact, error)
	AddNote(ctx context.Context, contactID uuid.UUID, note string) (*types.HistoryEntry, error)
	InitialStageFor(ctx context.Context, formTypeID uuid.UUID) (*types.Stage, error)
	GetContact(ctx context.Context, id uuid.UUID) (*types.Contact, error)
	ListContacts(ctx context.Context, filter repos.ContactFilter) ([]*types.Contact, error)
}

type contactService struct {
	db        *gorm.DB
	log       *logger.Logger
	contacts  repos.ContactRepo
	stages    repos.StageRepo
	pipelines repos.PipelineRepo
	history   HistoryService
	notifier  BoardNotifier
}

func NewContactService(db *gorm.DB, baseLog *logger.Logger, contacts repos.ContactRepo, stages repos.StageRepo, pipelines repos.PipelineRepo, history HistoryService, notifier BoardNotifier) ContactService {
	return &contactService{
		db:        db,
		log:       baseLog.With("service", "ContactService"),
		contacts:  contacts,
		stages:    stages,
		pipelines: pipelines,
		history:   history,
		notifier:  notifier,
	}
}

func (s *contactService) AssignToStage(ctx context.Context, contactID, stageID uuid.UUID) (*types.Contact, error) {
	contact, err := s.getContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	stage, err := s.stages.GetByID(ctx, nil, stageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stage", stageID)
		}
		return nil, apperr.Store("get stage", err)
	}

	before := map[string]any{"stage_id": contact.StageID}
	fields := map[string]interface{}{
		"stage_id":   stage.ID,
		"updated_at": time.Now().UTC(),
	}
	if err := s.contacts.UpdateFields(ctx, nil, contactID, fields); err != nil {
		return nil, apperr.Store("assign contact to stage", err)
	}
	contact.StageID = &stage.ID
	observability.StageMovesTotal.Inc()

	s.appendHistory(ctx, contactID, types.HistoryKindStageChanged,
		fmt.Sprintf("moved to stage %q", stage.Name),
		before, map[string]any{"stage_id": stage.ID})

	if s.notifier != nil {
		s.notifier.ContactStageChanged(contact, stage)
	}
	return contact, nil
}

func (s *contactService) SetStatus(ctx context.Context, contactID uuid.UUID, status string) (*types.Contact, error) {
	if status == "" {
		return nil, apperr.Validation("status cannot be empty")
	}
	contact, err := s.getContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	old := contact.Status
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if err := s.contacts.UpdateFields(ctx, nil, contactID, fields); err != nil {
		return nil, apperr.Store("set contact status", err)
	}
	contact.Status = status

	s.appendHistory(ctx, contactID, types.HistoryKindStatusChanged,
		fmt.Sprintf("status: %s → %s", old, status),
		map[string]any{"status": old}, map[string]any{"status": status})
	return contact, nil
}

func (s *contactService) SetPriority(ctx context.Context, contactID uuid.UUID, priority string) (*types.Contact, error) {
	if priority == "" {
		return nil, apperr.Validation("priority cannot be empty")
	}
	contact, err := s.getContact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	old := contact.Priority
	fields := map[string]interface{}{
		"priority":   priority,
		"updated_at": time.Now().UTC(),
	}
	if err := s.contacts.UpdateFields(ctx, nil, contactID, fields); err != nil {
		return nil, apperr.Store("set contact priority", err)
	}
	contact.Priority = priority

	s.appendHistory(ctx, contactID, types.HistoryKindPriorityChanged,
		fmt.Sprintf("priority: %s → %s", old, priority),
		map[string]any{"priority": old}, map[string]any{"priority": priority})
	return contact, nil
}

// AddNote only touches the ledger; notes have no contact-side mutation, so a
// failed append is a real error here.
func (s *contactService) AddNote(ctx context.Context, contactID uuid.UUID, note string) (*types.HistoryEntry, error) {
	if note == "" {
		return nil, apperr.Validation("note cannot be empty")
	}
	if _, err := s.getContact(ctx, contactID); err != nil {
		return nil, err
	}
	return s.history.Append(ctx, nil, contactID, types.HistoryKindNoteAdded, note, nil, nil, actorPtr(ctx))
}

// InitialStageFor resolves the stage newly created contacts are seeded with:
// the order-1 stage of the form type's unique active pipeline. (nil, nil)
// means "no stage" — no pipeline, or a pipeline with no stages yet.
func (s *contactService) InitialStageFor(ctx context.Context, formTypeID uuid.UUID) (*types.Stage, error) {
	pipeline, err := s.pipelines.GetActiveByFormTypeID(ctx, nil, formTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Store("get active pipeline", err)
	}
	stage, err := s.stages.GetFirstByPipelineID(ctx, nil, pipeline.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Store("get first stage", err)
	}
	return stage, nil
}

func (s *contactService) GetContact(ctx context.Context, id uuid.UUID) (*types.Contact, error) {
	return s.getContact(ctx, id)
}

func (s *contactService) ListContacts(ctx context.Context, filter repos.ContactFilter) ([]*types.Contact, error) {
	list, err := s.contacts.List(ctx, nil, filter)
	if err != nil {
		return nil, apperr.Store("list contacts", err)
	}
	return list, nil
}

func (s *contactService) getContact(ctx context.Context, id uuid.UUID) (*types.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contact", id)
		}
		return nil, apperr.Store("get contact", err)
	}
	return contact, nil
}

// appendHistory is phase two of every router mutation. Failure leaves the
// contact correctly mutated but under-audited, which is the accepted degraded
// state; it must never surface to the caller.
func (s *contactService) appendHistory(ctx context.Context, contactID uuid.UUID, kind types.HistoryKind, description string, before, after map[string]any) {
	if _, err := s.history.Append(ctx, nil, contactID, kind, description, before, after, actorPtr(ctx)); err != nil {
		observability.HistoryAppendFailuresTotal.Inc()
		s.log.Warn("History append failed after contact mutation", "contact_id", contactID, "kind", kind, "error", err)
	}
}

func actorPtr(ctx context.Context) *uuid.UUID {
	actor := requestdata.ActorID(ctx)
	if actor == uuid.Nil {
		return nil
	}
	return &actor
}

package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// HistoryService is the append-only audit ledger for contacts.
type HistoryService interface {
	Append(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, kind types.HistoryKind, description string, before, after map[string]any, actorID *uuid.UUID) (*types.HistoryEntry, error)
	ListFor(ctx context.Context, contactID uuid.UUID) ([]*types.HistoryEntry, error)
}

type historyService struct {
	log     *logger.Logger
	history repos.HistoryRepo
}

func NewHistoryService(baseLog *logger.Logger, history repos.HistoryRepo) HistoryService {
	return &historyService{
		log:     baseLog.With("service", "HistoryService"),
		history: history,
	}
}

func (s *historyService) Append(ctx context.Context, tx *gorm.DB, contactID uuid.UUID, kind types.HistoryKind, description string, before, after map[string]any, actorID *uuid.UUID) (*types.HistoryEntry, error) {
	if contactID == uuid.Nil {
		return nil, apperr.Validation("history entry requires a contact id")
	}
	entry := &types.HistoryEntry{
		ContactID:   contactID,
		Kind:        kind,
		Description: description,
		Before:      mustJSON(before),
		After:       mustJSON(after),
		ActorID:     actorID,
	}
	if _, err := s.history.Create(ctx, tx, entry); err != nil {
		return nil, apperr.Store("append history entry", err)
	}
	return entry, nil
}

// ListFor returns the contact's entries most recent first.
func (s *historyService) ListFor(ctx context.Context, contactID uuid.UUID) ([]*types.HistoryEntry, error) {
	entries, err := s.history.GetByContactID(ctx, nil, contactID)
	if err != nil {
		return nil, apperr.Store("list history entries", err)
	}
	return entries, nil
}

func mustJSON(v map[string]any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

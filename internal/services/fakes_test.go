package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

var errFakeStore = errors.New("fake store failure")

type fakeFormTypeRepo struct {
	byID map[uuid.UUID]*types.FormType
}

func newFakeFormTypeRepo() *fakeFormTypeRepo {
	return &fakeFormTypeRepo{byID: make(map[uuid.UUID]*types.FormType)}
}

func (r *fakeFormTypeRepo) Create(ctx context.Context, tx *gorm.DB, ft *types.FormType) (*types.FormType, error) {
	if ft.ID == uuid.Nil {
		ft.ID = uuid.New()
	}
	r.byID[ft.ID] = ft
	return ft, nil
}

func (r *fakeFormTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormType, error) {
	ft, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ft, nil
}

func (r *fakeFormTypeRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FormType, error) {
	for _, ft := range r.byID {
		if ft.Key == key {
			return ft, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFormTypeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.FormType, error) {
	out := make([]*types.FormType, 0, len(r.byID))
	for _, ft := range r.byID {
		out = append(out, ft)
	}
	return out, nil
}

func (r *fakeFormTypeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	ft, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["active"].(bool); ok {
		ft.Active = v
	}
	return nil
}

type fakePipelineRepo struct {
	byID map[uuid.UUID]*types.Pipeline
}

func newFakePipelineRepo() *fakePipelineRepo {
	return &fakePipelineRepo{byID: make(map[uuid.UUID]*types.Pipeline)}
}

func (r *fakePipelineRepo) Create(ctx context.Context, tx *gorm.DB, p *types.Pipeline) (*types.Pipeline, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakePipelineRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Pipeline, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePipelineRepo) GetActiveByFormTypeID(ctx context.Context, tx *gorm.DB, formTypeID uuid.UUID) (*types.Pipeline, error) {
	for _, p := range r.byID {
		if p.FormTypeID == formTypeID && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePipelineRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Pipeline, error) {
	out := make([]*types.Pipeline, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePipelineRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// fakeStageRepo mirrors the real repo's contract: reads return active stages
// sorted ascending by order. failOrderUpdates makes the next N UpdateOrder
// calls fail, for exercising the reorder retry path.
type fakeStageRepo struct {
	byID             map[uuid.UUID]*types.Stage
	failOrderUpdates int
	orderCalls       int
}

func newFakeStageRepo() *fakeStageRepo {
	return &fakeStageRepo{byID: make(map[uuid.UUID]*types.Stage)}
}

func (r *fakeStageRepo) Create(ctx context.Context, tx *gorm.DB, s *types.Stage) (*types.Stage, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.byID[s.ID] = s
	return s, nil
}

func (r *fakeStageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Stage, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStageRepo) GetByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) ([]*types.Stage, error) {
	var out []*types.Stage
	for _, s := range r.byID {
		if s.PipelineID == pipelineID && s.Active {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeStageRepo) GetFirstByPipelineID(ctx context.Context, tx *gorm.DB, pipelineID uuid.UUID) (*types.Stage, error) {
	stages, _ := r.GetByPipelineID(ctx, tx, pipelineID)
	if len(stages) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return stages[0], nil
}

func (r *fakeStageRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	s, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["name"].(string); ok {
		s.Name = v
	}
	if v, ok := fields["description"].(string); ok {
		s.Description = v
	}
	if v, ok := fields["color"].(string); ok {
		s.Color = v
	}
	if v, ok := fields["active"].(bool); ok {
		s.Active = v
	}
	return nil
}

func (r *fakeStageRepo) UpdateOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, order int) error {
	r.orderCalls++
	if r.failOrderUpdates > 0 {
		r.failOrderUpdates--
		return errFakeStore
	}
	s, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Order = order
	return nil
}

func (r *fakeStageRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type fakeContactRepo struct {
	byID map[uuid.UUID]*types.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{byID: make(map[uuid.UUID]*types.Contact)}
}

func (r *fakeContactRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Contact) (*types.Contact, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.byID[c.ID] = c
	return c, nil
}

func (r *fakeContactRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Contact, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) List(ctx context.Context, tx *gorm.DB, filter repos.ContactFilter) ([]*types.Contact, error) {
	var out []*types.Contact
	for _, c := range r.byID {
		if filter.FormTypeID != nil && (c.FormTypeID == nil || *c.FormTypeID != *filter.FormTypeID) {
			continue
		}
		if filter.StageID != nil && (c.StageID == nil || *c.StageID != *filter.StageID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeContactRepo) GetByStageID(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) ([]*types.Contact, error) {
	var out []*types.Contact
	for _, c := range r.byID {
		if c.StageID != nil && *c.StageID == stageID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if raw, ok := fields["stage_id"]; ok {
		switch v := raw.(type) {
		case uuid.UUID:
			id := v
			c.StageID = &id
		case nil:
			c.StageID = nil
		}
	}
	if v, ok := fields["status"].(string); ok {
		c.Status = v
	}
	if v, ok := fields["priority"].(string); ok {
		c.Priority = v
	}
	return nil
}

type fakeHistoryRepo struct {
	entries  []*types.HistoryEntry
	failNext bool
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.HistoryEntry) (*types.HistoryEntry, error) {
	if r.failNext {
		r.failNext = false
		return nil, errFakeStore
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *fakeHistoryRepo) GetByContactID(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) ([]*types.HistoryEntry, error) {
	var out []*types.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ContactID == contactID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) forContact(contactID uuid.UUID) []*types.HistoryEntry {
	out, _ := r.GetByContactID(context.Background(), nil, contactID)
	return out
}

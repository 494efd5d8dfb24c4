package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type pipelineFixture struct {
	formTypes *fakeFormTypeRepo
	pipelines *fakePipelineRepo
	stages    *fakeStageRepo
	contacts  *fakeContactRepo
	history   *fakeHistoryRepo
	service   PipelineService
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		formTypes: newFakeFormTypeRepo(),
		pipelines: newFakePipelineRepo(),
		stages:    newFakeStageRepo(),
		contacts:  newFakeContactRepo(),
		history:   newFakeHistoryRepo(),
	}
	f.service = NewPipelineService(nil, testLogger(), f.formTypes, f.pipelines, f.stages, f.contacts, f.history)
	return f
}

func (f *pipelineFixture) seedFormType(t *testing.T) *types.FormType {
	t.Helper()
	ft := &types.FormType{Key: "exhibitor", Name: "Exhibitor", Active: true}
	if _, err := f.formTypes.Create(context.Background(), nil, ft); err != nil {
		t.Fatalf("seed form type: %v", err)
	}
	return ft
}

func (f *pipelineFixture) seedPipeline(t *testing.T, names ...string) (*types.Pipeline, []*types.Stage) {
	t.Helper()
	ctx := context.Background()
	ft := f.seedFormType(t)
	p, err := f.service.CreatePipeline(ctx, ft.ID, "Exhibitor intake", "")
	if err != nil {
		t.Fatalf("seed pipeline: %v", err)
	}
	stages := make([]*types.Stage, 0, len(names))
	for _, name := range names {
		s, err := f.service.CreateStage(ctx, p.ID, name, "", "")
		if err != nil {
			t.Fatalf("seed stage %s: %v", name, err)
		}
		stages = append(stages, s)
	}
	return p, stages
}

func stageOrders(t *testing.T, f *pipelineFixture, pipelineID uuid.UUID) map[string]int {
	t.Helper()
	stages, err := f.service.ListStages(context.Background(), pipelineID)
	if err != nil {
		t.Fatalf("list stages: %v", err)
	}
	out := make(map[string]int, len(stages))
	for _, s := range stages {
		out[s.Name] = s.Order
	}
	return out
}

func TestCreatePipelineUnknownFormType(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.service.CreatePipeline(context.Background(), uuid.New(), "p", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("create pipeline error: want=ErrNotFound got=%v", err)
	}
}

func TestCreatePipelineConflictOnSecondActive(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	ft := f.seedFormType(t)

	if _, err := f.service.CreatePipeline(ctx, ft.ID, "first", ""); err != nil {
		t.Fatalf("first pipeline: %v", err)
	}
	_, err := f.service.CreatePipeline(ctx, ft.ID, "second", "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second active pipeline: want=ErrConflict got=%v", err)
	}
}

func TestCreateStageAppends(t *testing.T) {
	f := newPipelineFixture(t)
	p, _ := f.seedPipeline(t, "New", "Contacted", "Confirmed")

	got := stageOrders(t, f, p.ID)
	want := map[string]int{"New": 1, "Contacted": 2, "Confirmed": 3}
	for name, order := range want {
		if got[name] != order {
			t.Fatalf("stage %s order: want=%d got=%d", name, order, got[name])
		}
	}
}

func TestUpdateStageMove(t *testing.T) {
	f := newPipelineFixture(t)
	p, stages := f.seedPipeline(t, "A", "B", "C", "D", "E")

	target := 1
	if _, err := f.service.UpdateStage(context.Background(), stages[2].ID, StageUpdate{Order: &target}); err != nil {
		t.Fatalf("update stage: %v", err)
	}

	got := stageOrders(t, f, p.ID)
	want := map[string]int{"C": 1, "A": 2, "B": 3, "D": 4, "E": 5}
	for name, order := range want {
		if got[name] != order {
			t.Fatalf("stage %s order after move: want=%d got=%d", name, order, got[name])
		}
	}
}

func TestUpdateStageClampsOutOfRangeOrder(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	p, stages := f.seedPipeline(t, "A", "B", "C")

	low := -5
	if _, err := f.service.UpdateStage(ctx, stages[2].ID, StageUpdate{Order: &low}); err != nil {
		t.Fatalf("underflowing order: %v", err)
	}
	if got := stageOrders(t, f, p.ID); got["C"] != 1 {
		t.Fatalf("order -5 must clamp to 1: got %v", got)
	}

	high := 99
	if _, err := f.service.UpdateStage(ctx, stages[2].ID, StageUpdate{Order: &high}); err != nil {
		t.Fatalf("overflowing order: %v", err)
	}
	if got := stageOrders(t, f, p.ID); got["C"] != 3 {
		t.Fatalf("order 99 must clamp to N: got %v", got)
	}
}

func TestUpdateStageFields(t *testing.T) {
	f := newPipelineFixture(t)
	_, stages := f.seedPipeline(t, "A")

	name := "Renamed"
	color := "#ff0000"
	got, err := f.service.UpdateStage(context.Background(), stages[0].ID, StageUpdate{Name: &name, Color: &color})
	if err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if got.Name != "Renamed" || got.Color != "#ff0000" {
		t.Fatalf("updated stage: want=(Renamed,#ff0000) got=(%s,%s)", got.Name, got.Color)
	}
}

func TestMoveRetriesOnceOnStoreError(t *testing.T) {
	f := newPipelineFixture(t)
	p, stages := f.seedPipeline(t, "A", "B", "C")
	f.stages.failOrderUpdates = 1

	target := 3
	if _, err := f.service.UpdateStage(context.Background(), stages[0].ID, StageUpdate{Order: &target}); err != nil {
		t.Fatalf("move with one transient failure must succeed: %v", err)
	}
	got := stageOrders(t, f, p.ID)
	if got["A"] != 3 || got["B"] != 1 || got["C"] != 2 {
		t.Fatalf("orders after retried move: want A=3 B=1 C=2 got %v", got)
	}
}

func TestMoveFailsAfterSecondStoreError(t *testing.T) {
	f := newPipelineFixture(t)
	_, stages := f.seedPipeline(t, "A", "B", "C")
	f.stages.failOrderUpdates = 10

	target := 3
	_, err := f.service.UpdateStage(context.Background(), stages[0].ID, StageUpdate{Order: &target})
	if !errors.Is(err, apperr.ErrStore) {
		t.Fatalf("persistent store failure: want=ErrStore got=%v", err)
	}
}

func TestDeleteStageRenumbersAndReassignsContacts(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	p, stages := f.seedPipeline(t, "A", "B", "C", "D")

	contact := &types.Contact{StageID: &stages[2].ID, Status: types.ContactStatusNew}
	if _, err := f.contacts.Create(ctx, nil, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	if err := f.service.DeleteStage(ctx, stages[2].ID); err != nil {
		t.Fatalf("delete stage: %v", err)
	}

	got := stageOrders(t, f, p.ID)
	want := map[string]int{"A": 1, "B": 2, "D": 3}
	if len(got) != len(want) {
		t.Fatalf("stage count after delete: want=%d got=%d", len(want), len(got))
	}
	for name, order := range want {
		if got[name] != order {
			t.Fatalf("stage %s order after delete: want=%d got=%d", name, order, got[name])
		}
	}

	moved, err := f.contacts.GetByID(ctx, nil, contact.ID)
	if err != nil {
		t.Fatalf("reload contact: %v", err)
	}
	if moved.StageID == nil || *moved.StageID != stages[0].ID {
		t.Fatalf("orphaned contact must land on the first remaining stage %s, got %v", stages[0].ID, moved.StageID)
	}

	entries := f.history.forContact(contact.ID)
	if len(entries) != 1 {
		t.Fatalf("reassignment history entries: want=1 got=%d", len(entries))
	}
	if entries[0].Kind != types.HistoryKindStageChanged {
		t.Fatalf("reassignment history kind: want=%s got=%s", types.HistoryKindStageChanged, entries[0].Kind)
	}
}

func TestDeleteLastStageLeavesContactsUnassigned(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	_, stages := f.seedPipeline(t, "Only")

	contact := &types.Contact{StageID: &stages[0].ID, Status: types.ContactStatusNew}
	if _, err := f.contacts.Create(ctx, nil, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	if err := f.service.DeleteStage(ctx, stages[0].ID); err != nil {
		t.Fatalf("delete stage: %v", err)
	}
	moved, err := f.contacts.GetByID(ctx, nil, contact.ID)
	if err != nil {
		t.Fatalf("reload contact: %v", err)
	}
	if moved.StageID != nil {
		t.Fatalf("contact on last deleted stage: want unassigned got stage %v", *moved.StageID)
	}
}

// activeOrders reads the active set straight from the repo, bypassing the
// self-heal in ListStages, so a gapped sequence cannot hide.
func activeOrders(t *testing.T, f *pipelineFixture, pipelineID uuid.UUID) []*types.Stage {
	t.Helper()
	stages, err := f.stages.GetByPipelineID(context.Background(), nil, pipelineID)
	if err != nil {
		t.Fatalf("list active stages: %v", err)
	}
	return stages
}

func TestDeactivateStageRenumbersActiveSet(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	p, stages := f.seedPipeline(t, "A", "B", "C")

	contact := &types.Contact{StageID: &stages[0].ID, Status: types.ContactStatusNew}
	if _, err := f.contacts.Create(ctx, nil, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	inactive := false
	if _, err := f.service.UpdateStage(ctx, stages[0].ID, StageUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate stage: %v", err)
	}

	active := activeOrders(t, f, p.ID)
	if len(active) != 2 || !OrdersContiguous(active) {
		t.Fatalf("active orders after deactivation must be {1,2}, got %v", active)
	}
	if active[0].Name != "B" || active[0].Order != 1 || active[1].Name != "C" || active[1].Order != 2 {
		t.Fatalf("active set after deactivating A: want B=1 C=2 got %s=%d %s=%d",
			active[0].Name, active[0].Order, active[1].Name, active[1].Order)
	}

	moved, err := f.contacts.GetByID(ctx, nil, contact.ID)
	if err != nil {
		t.Fatalf("reload contact: %v", err)
	}
	if moved.StageID == nil || *moved.StageID != stages[1].ID {
		t.Fatalf("contact on deactivated stage must move to %s, got %v", stages[1].ID, moved.StageID)
	}
	entries := f.history.forContact(contact.ID)
	if len(entries) != 1 || entries[0].Kind != types.HistoryKindStageChanged {
		t.Fatalf("reassignment must pair one stage-changed entry, got %v", entries)
	}
}

func TestDeactivateLastStageLeavesContactsUnassigned(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	_, stages := f.seedPipeline(t, "Only")

	contact := &types.Contact{StageID: &stages[0].ID, Status: types.ContactStatusNew}
	if _, err := f.contacts.Create(ctx, nil, contact); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	inactive := false
	if _, err := f.service.UpdateStage(ctx, stages[0].ID, StageUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate stage: %v", err)
	}
	moved, err := f.contacts.GetByID(ctx, nil, contact.ID)
	if err != nil {
		t.Fatalf("reload contact: %v", err)
	}
	if moved.StageID != nil {
		t.Fatalf("contact on last deactivated stage: want unassigned got stage %v", *moved.StageID)
	}
}

func TestReactivateStageRejoinsAtEnd(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	p, stages := f.seedPipeline(t, "A", "B", "C")

	inactive, reactive := false, true
	if _, err := f.service.UpdateStage(ctx, stages[0].ID, StageUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate stage: %v", err)
	}
	got, err := f.service.UpdateStage(ctx, stages[0].ID, StageUpdate{Active: &reactive})
	if err != nil {
		t.Fatalf("reactivate stage: %v", err)
	}
	if got.Order != 3 {
		t.Fatalf("reactivated stage must rejoin at the end: want=3 got=%d", got.Order)
	}

	active := activeOrders(t, f, p.ID)
	if len(active) != 3 || !OrdersContiguous(active) {
		t.Fatalf("active orders after reactivation must be {1,2,3}, got %v", active)
	}
	if active[0].Name != "B" || active[1].Name != "C" || active[2].Name != "A" {
		t.Fatalf("sequence after reactivation: want B,C,A got %s,%s,%s",
			active[0].Name, active[1].Name, active[2].Name)
	}
}

func TestDeleteUnknownStage(t *testing.T) {
	f := newPipelineFixture(t)
	if err := f.service.DeleteStage(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("delete unknown stage: want=ErrNotFound got=%v", err)
	}
}

func TestListStagesSelfHealsCorruptOrders(t *testing.T) {
	f := newPipelineFixture(t)
	p, stages := f.seedPipeline(t, "A", "B", "C")

	// simulate an interrupted batch leaving a duplicate
	f.stages.byID[stages[1].ID].Order = 1

	listed, err := f.service.ListStages(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("list stages: %v", err)
	}
	if !OrdersContiguous(listed) {
		t.Fatalf("self-heal failed, orders still corrupt: %v", stageOrders(t, f, p.ID))
	}
}

func TestNormalizePipelineNoopOnCleanSequence(t *testing.T) {
	f := newPipelineFixture(t)
	p, _ := f.seedPipeline(t, "A", "B", "C")

	calls := f.stages.orderCalls
	if err := f.service.NormalizePipeline(context.Background(), p.ID); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if f.stages.orderCalls != calls {
		t.Fatalf("normalize of clean pipeline must not write: want=%d order calls got=%d", calls, f.stages.orderCalls)
	}
}

package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// StageOrderUpdate is one order assignment in a reorder batch.
type StageOrderUpdate struct {
	StageID uuid.UUID
	Order   int
}

// PlanMove computes the minimal batch of order updates that moves the given
// stage to target while keeping the pipeline's orders a contiguous 1..N set.
// Moving right decrements every stage in (current, target]; moving left
// increments every stage in [target, current). The moved stage is always the
// last element of the batch so a partial application leaves at most one
// duplicate, never a gap.
func PlanMove(stages []*types.Stage, stageID uuid.UUID, target int) ([]StageOrderUpdate, error) {
	var moved *types.Stage
	for _, s := range stages {
		if s.ID == stageID {
			moved = s
			break
		}
	}
	if moved == nil {
		return nil, apperr.NotFound("stage", stageID)
	}

	n := len(stages)
	if target < 1 {
		target = 1
	}
	if target > n {
		target = n
	}

	current := moved.Order
	if target == current {
		return nil, nil
	}

	var updates []StageOrderUpdate
	for _, s := range stages {
		if s.ID == moved.ID {
			continue
		}
		switch {
		case target > current && s.Order > current && s.Order <= target:
			updates = append(updates, StageOrderUpdate{StageID: s.ID, Order: s.Order - 1})
		case target < current && s.Order >= target && s.Order < current:
			updates = append(updates, StageOrderUpdate{StageID: s.ID, Order: s.Order + 1})
		}
	}
	updates = append(updates, StageOrderUpdate{StageID: moved.ID, Order: target})
	return updates, nil
}

// PlanRemoval computes the renumbering needed after deleting a stage: every
// stage ordered after it shifts down by one.
func PlanRemoval(stages []*types.Stage, stageID uuid.UUID) []StageOrderUpdate {
	var removed *types.Stage
	for _, s := range stages {
		if s.ID == stageID {
			removed = s
			break
		}
	}
	if removed == nil {
		return nil
	}

	var updates []StageOrderUpdate
	for _, s := range stages {
		if s.ID == removed.ID {
			continue
		}
		if s.Order > removed.Order {
			updates = append(updates, StageOrderUpdate{StageID: s.ID, Order: s.Order - 1})
		}
	}
	return updates
}

// Normalize produces the updates that restore a clean 1..N sequence from any
// input, including duplicated or gapped orders left behind by an interrupted
// batch. Ties break by creation time, then id, so repair is deterministic.
func Normalize(stages []*types.Stage) []StageOrderUpdate {
	sorted := make([]*types.Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var updates []StageOrderUpdate
	for i, s := range sorted {
		want := i + 1
		if s.Order != want {
			updates = append(updates, StageOrderUpdate{StageID: s.ID, Order: want})
		}
	}
	return updates
}

// OrdersContiguous reports whether the stages' orders are exactly {1..N}.
func OrdersContiguous(stages []*types.Stage) bool {
	seen := make(map[int]bool, len(stages))
	for _, s := range stages {
		if s.Order < 1 || s.Order > len(stages) || seen[s.Order] {
			return false
		}
		seen[s.Order] = true
	}
	return true
}

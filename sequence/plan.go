package sequence

import (
	"context"
	"fmt"
	"strings"
)

// OpKind identifies the write operation a Plan was built for.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// ShiftInstruction moves a contiguous range of sibling rows by Delta so the
// group's sequence stays gapless. A nil Groups map scopes the shift to the
// plan's old group values; a non-nil map overrides them (used when a record
// moves into a new group at an explicit position).
type ShiftInstruction struct {
	Delta  int64
	Range  OrderRange
	Groups map[string]any
}

// Plan is the outcome of planning one write or delete. AssignedOrder, when
// non-nil, is the order value the host must persist on the record itself;
// Shifts are the sibling updates Commit applies afterwards. A Plan belongs
// to exactly one operation and is discarded once committed.
type Plan struct {
	Op            OpKind
	Collection    string
	RecordID      string
	AssignedOrder *int64
	OldGroups     map[string]any
	Shifts        []ShiftInstruction
}

// NoOp reports whether the plan assigns no order and shifts nothing.
func (p *Plan) NoOp() bool {
	return p != nil && p.AssignedOrder == nil && len(p.Shifts) == 0
}

// PlanInsert plans an insert. When the payload carries no order value the
// record is appended to the end of its group. When it does, one increment
// shift makes room at that position; the shift is scoped by the new group
// values, since an insert has no prior ones.
func (s *Sequencer) PlanInsert(ctx context.Context, payload Record) (*Plan, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidInput)
	}
	newOrder, specified, err := s.captureNew(payload)
	if err != nil {
		return nil, err
	}
	groups := s.mergedGroups(specified, nil)
	plan := &Plan{Op: OpInsert, Collection: s.collection, OldGroups: groups}
	if newOrder == nil {
		highest, err := s.highestOrder(ctx, groups)
		if err != nil {
			return nil, err
		}
		assigned := highest + 1
		plan.AssignedOrder = &assigned
		return plan, nil
	}
	plan.AssignedOrder = newOrder
	plan.Shifts = append(plan.Shifts, ShiftInstruction{
		Delta: 1,
		Range: OrderRange{Lower: &Bound{Value: *newOrder, Inclusive: true}},
	})
	return plan, nil
}

// PlanUpdate plans an update of an existing record. Payloads touching
// neither the order field nor any group field plan to a no-op without
// reading the store. An order value outside the group's current contiguous
// range is applied as given; no bounds check is performed.
func (s *Sequencer) PlanUpdate(ctx context.Context, recordID string, payload Record) (*Plan, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("%w: empty record id", ErrInvalidInput)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidInput)
	}
	newOrder, specified, err := s.captureNew(payload)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Op: OpUpdate, Collection: s.collection, RecordID: recordID}
	if newOrder == nil && len(specified) == 0 {
		return plan, nil
	}

	oldOrder, oldGroups, err := s.captureOld(ctx, recordID)
	if err != nil {
		return nil, err
	}
	plan.OldGroups = oldGroups

	groupChanged := false
	for field, value := range specified {
		if !ValueEqual(value, oldGroups[field]) {
			groupChanged = true
			break
		}
	}
	if !groupChanged && (newOrder == nil || *newOrder == oldOrder) {
		return plan, nil
	}

	if groupChanged {
		// Close the gap left behind in the old group.
		plan.Shifts = append(plan.Shifts, ShiftInstruction{
			Delta: -1,
			Range: OrderRange{Lower: &Bound{Value: oldOrder, Inclusive: true}},
		})
		newGroups := s.mergedGroups(specified, oldGroups)
		if newOrder == nil {
			highest, err := s.highestOrder(ctx, newGroups)
			if err != nil {
				return nil, err
			}
			assigned := highest + 1
			plan.AssignedOrder = &assigned
			return plan, nil
		}
		plan.AssignedOrder = newOrder
		plan.Shifts = append(plan.Shifts, ShiftInstruction{
			Delta:  1,
			Range:  OrderRange{Lower: &Bound{Value: *newOrder, Inclusive: true}},
			Groups: newGroups,
		})
		return plan, nil
	}

	// Same group, different order.
	plan.AssignedOrder = newOrder
	if *newOrder < oldOrder {
		plan.Shifts = append(plan.Shifts, ShiftInstruction{
			Delta: 1,
			Range: OrderRange{
				Lower: &Bound{Value: *newOrder, Inclusive: true},
				Upper: &Bound{Value: oldOrder},
			},
		})
	} else {
		plan.Shifts = append(plan.Shifts, ShiftInstruction{
			Delta: -1,
			Range: OrderRange{
				Lower: &Bound{Value: oldOrder},
				Upper: &Bound{Value: *newOrder, Inclusive: true},
			},
		})
	}
	return plan, nil
}

// PlanDelete plans a delete: every sibling above the record's current order
// moves down one.
func (s *Sequencer) PlanDelete(ctx context.Context, recordID string) (*Plan, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("%w: empty record id", ErrInvalidInput)
	}
	oldOrder, oldGroups, err := s.captureOld(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Op:         OpDelete,
		Collection: s.collection,
		RecordID:   recordID,
		OldGroups:  oldGroups,
		Shifts: []ShiftInstruction{{
			Delta: -1,
			Range: OrderRange{Lower: &Bound{Value: oldOrder}},
		}},
	}, nil
}

// captureNew reads the order and group values out of a write payload. An
// absent key is unspecified; a present-but-nil order value is also treated
// as unspecified, while a present-but-nil group value is a real null group
// value.
func (s *Sequencer) captureNew(payload Record) (*int64, map[string]any, error) {
	var newOrder *int64
	if raw, ok := payload[s.cfg.OrderField]; ok && raw != nil {
		value, ok := OrderValue(raw)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s value %v is not an integer", ErrInvalidInput, s.cfg.OrderField, raw)
		}
		newOrder = &value
	}
	specified := make(map[string]any)
	for _, field := range s.cfg.GroupFields {
		if value, ok := payload[field]; ok {
			specified[field] = value
		}
	}
	return newOrder, specified, nil
}

// captureOld point-reads the record's persisted order and group values.
func (s *Sequencer) captureOld(ctx context.Context, recordID string) (int64, map[string]any, error) {
	raw, err := s.store.ReadField(ctx, s.collection, recordID, s.cfg.OrderField)
	if err != nil {
		return 0, nil, err
	}
	order, ok := OrderValue(raw)
	if !ok {
		return 0, nil, fmt.Errorf("%w: stored %s value %v is not an integer", ErrInvalidInput, s.cfg.OrderField, raw)
	}
	groups := make(map[string]any, len(s.cfg.GroupFields))
	for _, field := range s.cfg.GroupFields {
		value, err := s.store.ReadField(ctx, s.collection, recordID, field)
		if err != nil {
			return 0, nil, err
		}
		groups[field] = value
	}
	return order, groups, nil
}

// mergedGroups builds a complete group filter: the payload's value when the
// field was specified, the old value otherwise, nil when neither exists.
func (s *Sequencer) mergedGroups(specified, old map[string]any) map[string]any {
	merged := make(map[string]any, len(s.cfg.GroupFields))
	for _, field := range s.cfg.GroupFields {
		if value, ok := specified[field]; ok {
			merged[field] = value
			continue
		}
		if value, ok := old[field]; ok {
			merged[field] = value
			continue
		}
		merged[field] = nil
	}
	return merged
}

// highestOrder finds the maximum order value within the given group, or
// StartAt-1 when the group is empty, so appending yields StartAt for the
// first record.
func (s *Sequencer) highestOrder(ctx context.Context, groups map[string]any) (int64, error) {
	record, err := s.store.FindOne(ctx, s.collection, groups, s.cfg.OrderField, true)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return s.cfg.StartAt - 1, nil
	}
	value, ok := OrderValue(record[s.cfg.OrderField])
	if !ok {
		return 0, fmt.Errorf("%w: stored %s value %v is not an integer", ErrInvalidInput, s.cfg.OrderField, record[s.cfg.OrderField])
	}
	return value, nil
}

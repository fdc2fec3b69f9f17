package sequence

import "context"

// The four lifecycle hooks below are thin wrappers over the plan/commit
// phases for hosts that integrate at before/after write and delete points.
// The host is responsible for committing the record write or delete itself
// between the before and after call of each pair.

// BeforeWrite plans the pending write. An empty recordID plans an insert,
// anything else an update. When the plan assigns an order value it is
// written into the payload's order field so the host persists the record
// with it.
func (s *Sequencer) BeforeWrite(ctx context.Context, recordID string, payload Record) (*Plan, error) {
	var plan *Plan
	var err error
	if recordID == "" {
		plan, err = s.PlanInsert(ctx, payload)
	} else {
		plan, err = s.PlanUpdate(ctx, recordID, payload)
	}
	if err != nil {
		return nil, err
	}
	if plan.AssignedOrder != nil {
		payload[s.cfg.OrderField] = *plan.AssignedOrder
	}
	return plan, nil
}

// AfterWrite runs once the host has committed the record write. recordID is
// the identifier the store assigned; for inserts it is stamped onto the plan
// so the new row is excluded from its own shifts.
func (s *Sequencer) AfterWrite(ctx context.Context, plan *Plan, recordID string) error {
	if plan == nil {
		return nil
	}
	if plan.RecordID == "" {
		plan.RecordID = recordID
	}
	return s.Commit(ctx, plan)
}

// BeforeDelete plans the delete of an existing record.
func (s *Sequencer) BeforeDelete(ctx context.Context, recordID string) (*Plan, error) {
	return s.PlanDelete(ctx, recordID)
}

// AfterDelete runs once the host has removed the record.
func (s *Sequencer) AfterDelete(ctx context.Context, plan *Plan) error {
	return s.Commit(ctx, plan)
}

// Package sequence maintains a contiguous integer ordering column across the
// records of a collection, optionally partitioned into independent groups by
// one or more group fields. Within each group the order values always form
// the gapless sequence startAt, startAt+1, ... after every completed insert,
// update, cross-group move, or delete.
//
// The package is split into a pure planning phase and a commit phase: Plan*
// methods read current state from the Store and produce a Plan; Commit
// applies the plan's range shifts after the host has persisted the record
// write or delete itself. BeforeWrite/AfterWrite/BeforeDelete/AfterDelete
// wrap the two phases for hosts with lifecycle-hook integration points.
//
// Concurrent operations against the same group are not safe without external
// serialization: planning reads state that the shifts later depend on.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrStoreUpdateFailed = errors.New("store update failed")
	ErrInvalidConfig     = errors.New("invalid sequence config")
	ErrInvalidInput      = errors.New("invalid input")
)

// Sequencer maintains the ordering column of one collection. It holds no
// per-operation state; every operation is carried by the Plan it produces.
type Sequencer struct {
	store      Store
	collection string
	cfg        Config
}

// New validates cfg and binds a Sequencer to one collection of the store.
// The collection name must be a plain identifier because SQL-backed stores
// interpolate it as a table name.
func New(store Store, collection string, cfg Config) (*Sequencer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidInput)
	}
	if !validIdentifier(strings.TrimSpace(collection)) {
		return nil, fmt.Errorf("%w: collection %q is not a valid identifier", ErrInvalidConfig, collection)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{store: store, collection: strings.TrimSpace(collection), cfg: cfg}, nil
}

// Collection returns the collection this Sequencer is bound to.
func (s *Sequencer) Collection() string {
	return s.collection
}

// Config returns the validated configuration with defaults applied.
func (s *Sequencer) Config() Config {
	return s.cfg
}

// Commit applies the plan's shift instructions against the store. The host
// calls it after the record write or delete itself has been committed. For
// inserts the caller must first set plan.RecordID to the identifier the
// store assigned, so the fresh row is excluded from its own shift.
//
// Every instruction is attempted even when an earlier one fails; any failure
// surfaces as ErrStoreUpdateFailed wrapping the store errors. Shifts already
// applied are not rolled back.
func (s *Sequencer) Commit(ctx context.Context, plan *Plan) error {
	if plan == nil || len(plan.Shifts) == 0 {
		return nil
	}
	if strings.TrimSpace(plan.RecordID) == "" {
		return fmt.Errorf("%w: plan has no record id", ErrInvalidInput)
	}
	var failures []error
	for _, shift := range plan.Shifts {
		groups := shift.Groups
		if groups == nil {
			groups = plan.OldGroups
		}
		filter := ShiftFilter{
			Groups:          groups,
			Range:           shift.Range,
			ExcludeRecordID: plan.RecordID,
		}
		if err := s.store.BulkUpdate(ctx, plan.Collection, filter, s.cfg.OrderField, shift.Delta); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %w", ErrStoreUpdateFailed, errors.Join(failures...))
	}
	return nil
}

package sequence

import "context"

// Record is a write payload or a stored row, keyed by field name. A key
// absent from a payload means the caller left that field unspecified, which
// is distinct from a key present with a nil value.
type Record map[string]any

// Bound is one end of an order range.
type Bound struct {
	Value     int64
	Inclusive bool
}

// OrderRange selects sibling rows by their current order value. A nil end is
// unbounded.
type OrderRange struct {
	Lower *Bound
	Upper *Bound
}

// Contains reports whether v falls inside the range.
func (r OrderRange) Contains(v int64) bool {
	if r.Lower != nil {
		if r.Lower.Inclusive {
			if v < r.Lower.Value {
				return false
			}
		} else if v <= r.Lower.Value {
			return false
		}
	}
	if r.Upper != nil {
		if r.Upper.Inclusive {
			if v > r.Upper.Value {
				return false
			}
		} else if v >= r.Upper.Value {
			return false
		}
	}
	return true
}

// ShiftFilter scopes one bulk order shift: group equality (a nil value
// matches stored nulls), the order range, and the record being written or
// deleted, which is never shifted.
type ShiftFilter struct {
	Groups          map[string]any
	Range           OrderRange
	ExcludeRecordID string
}

// Store is the persistence collaborator. The Sequencer never writes the
// record being operated on; the host owns that write and calls Commit
// afterwards.
type Store interface {
	// ReadField point-reads one field of one record. It returns ErrNotFound
	// when the record does not exist.
	ReadField(ctx context.Context, collection, recordID, field string) (any, error)

	// FindOne returns the first record matching filter when sorted by
	// orderBy, or nil when none match. A nil filter value matches stored
	// nulls. Implementations may return only the orderBy column.
	FindOne(ctx context.Context, collection string, filter map[string]any, orderBy string, descending bool) (Record, error)

	// BulkUpdate applies field = field + delta to every record matching
	// filter.
	BulkUpdate(ctx context.Context, collection string, filter ShiftFilter, field string, delta int64) error
}

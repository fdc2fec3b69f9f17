package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentworkforce/seqfield/sequence"
)

const sqlOperationTimeout = 5 * time.Second

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

type sqlDialect struct {
	driver      string
	placeholder func(n int) string
}

// SQLStore implements sequence.Store on a SQL database. Collections are
// tables and records are rows identified by the id column. The connection
// opens lazily on first use.
type SQLStore struct {
	dsn      string
	dialect  sqlDialect
	idColumn string
	timeout  time.Duration
	openDB   sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func newSQLStore(dsn string, dialect sqlDialect) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty dsn", sequence.ErrInvalidInput)
	}
	return &SQLStore{
		dsn:      dsn,
		dialect:  dialect,
		idColumn: "id",
		timeout:  sqlOperationTimeout,
		openDB:   sql.Open,
	}, nil
}

// SetIDColumn overrides the record identity column (default "id"). Call it
// before the first store operation.
func (s *SQLStore) SetIDColumn(column string) {
	if validSQLIdentifier(column) {
		s.idColumn = column
	}
}

func (s *SQLStore) ensureReady() error {
	if s == nil {
		return sequence.ErrInvalidInput
	}
	s.initOnce.Do(func() {
		db, err := s.openDB(s.dialect.driver, s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLStore) ReadField(ctx context.Context, collection, recordID, field string) (any, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		quoteIdentifier(field),
		quoteIdentifier(collection),
		quoteIdentifier(s.idColumn),
		s.dialect.placeholder(1))
	var value any
	err := s.db.QueryRowContext(ctx, query, recordID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalizeSQLValue(value), nil
}

// FindOne returns only the orderBy column; that is all the Sequencer ever
// reads from it.
func (s *SQLStore) FindOne(ctx context.Context, collection string, filter map[string]any, orderBy string, descending bool) (sequence.Record, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	conditions, args := buildGroupConditions(filter, s.dialect, 1)
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdentifier(orderBy), quoteIdentifier(collection))
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT 1", quoteIdentifier(orderBy), direction)

	var value any
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sequence.Record{orderBy: normalizeSQLValue(value)}, nil
}

func (s *SQLStore) BulkUpdate(ctx context.Context, collection string, filter sequence.ShiftFilter, field string, delta int64) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	quotedField := quoteIdentifier(field)
	query := fmt.Sprintf("UPDATE %s SET %s = %s + %s",
		quoteIdentifier(collection), quotedField, quotedField, s.dialect.placeholder(1))
	args := []any{delta}
	next := 2

	conditions := make([]string, 0, len(filter.Groups)+3)
	if filter.ExcludeRecordID != "" {
		conditions = append(conditions, fmt.Sprintf("%s <> %s", quoteIdentifier(s.idColumn), s.dialect.placeholder(next)))
		args = append(args, filter.ExcludeRecordID)
		next++
	}
	groupConditions, groupArgs := buildGroupConditions(filter.Groups, s.dialect, next)
	conditions = append(conditions, groupConditions...)
	args = append(args, groupArgs...)
	next += len(groupArgs)
	if filter.Range.Lower != nil {
		op := ">"
		if filter.Range.Lower.Inclusive {
			op = ">="
		}
		conditions = append(conditions, fmt.Sprintf("%s %s %s", quotedField, op, s.dialect.placeholder(next)))
		args = append(args, filter.Range.Lower.Value)
		next++
	}
	if filter.Range.Upper != nil {
		op := "<"
		if filter.Range.Upper.Inclusive {
			op = "<="
		}
		conditions = append(conditions, fmt.Sprintf("%s %s %s", quotedField, op, s.dialect.placeholder(next)))
		args = append(args, filter.Range.Upper.Value)
		next++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// buildGroupConditions renders group equality filters in deterministic field
// order. A nil value becomes IS NULL and consumes no placeholder.
func buildGroupConditions(groups map[string]any, dialect sqlDialect, next int) ([]string, []any) {
	if len(groups) == 0 {
		return nil, nil
	}
	fields := make([]string, 0, len(groups))
	for field := range groups {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	conditions := make([]string, 0, len(fields))
	var args []any
	for _, field := range fields {
		value := groups[field]
		if value == nil {
			conditions = append(conditions, fmt.Sprintf("%s IS NULL", quoteIdentifier(field)))
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = %s", quoteIdentifier(field), dialect.placeholder(next)))
		args = append(args, value)
		next++
	}
	return conditions, args
}

// normalizeSQLValue maps driver-specific scan results onto the value shapes
// the planner coerces: lib/pq returns []byte for text columns.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func validSQLIdentifier(identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false
	}
	for i, r := range identifier {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

package store

import (
	"fmt"

	_ "github.com/lib/pq"
)

var postgresDialect = sqlDialect{
	driver:      "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// NewPostgresStore builds a SQLStore on the github.com/lib/pq driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	return newSQLStore(dsn, postgresDialect)
}

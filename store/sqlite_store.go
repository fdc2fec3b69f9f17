package store

import (
	_ "modernc.org/sqlite"
)

var sqliteDialect = sqlDialect{
	driver:      "sqlite",
	placeholder: func(n int) string { return "?" },
}

// NewSQLiteStore builds a SQLStore on the modernc.org/sqlite driver. dsn is
// a file path or a file: URI.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	return newSQLStore(dsn, sqliteDialect)
}

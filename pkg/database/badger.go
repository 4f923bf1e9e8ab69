package database

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// NewBadgerDB opens an embedded badger store at path
func NewBadgerDB(path string, debug bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if debug {
		opts = opts.WithLoggingLevel(badger.DEBUG)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// NewInMemoryBadgerDB opens a badger store without files
func NewInMemoryBadgerDB() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
}

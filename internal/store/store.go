// internal/store/store.go
// Package store implements postgres persistence for the provider application
// workflow. The one-pending-per-user invariant and the review-action
// linearizability both live here: the former as a partial unique index, the
// latter as row locks inside the review transactions.
package store

import (
	"database/sql"

	"provider-workflow/internal/common/logger"
)

// Store holds the injected database handle shared by the application and
// user accessors.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// New creates a Store on an already-open database handle. The handle's
// lifecycle (open at process start, close at shutdown) belongs to the caller.
func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

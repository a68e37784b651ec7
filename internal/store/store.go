// Package store provides the record-store collaborator the processing
// pipeline reads from and writes to. The core never talks to Postgres
// directly; it sees only this interface, which keeps the transforms pure
// and the tests free of a live database.
package store

import (
	"context"
	"fmt"
)

// Store is the tabular record store backing the pipeline.
type Store interface {
	// ScanOrdered returns all rows of table in ascending order of
	// orderColumn, fetched in pages of pageSize. The result is fully
	// materialized: partial reads are never returned.
	ScanOrdered(ctx context.Context, table, orderColumn string, pageSize int) ([]map[string]any, error)

	// InsertBatch inserts rows (values ordered per columns) into table.
	// Each call is atomic for its own batch only; there is no cross-batch
	// transaction.
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// BatchError reports a failed batch insert. Earlier batches may already be
// committed, so it carries enough context to resume manually: the 1-based
// batch number and the rows committed before the failure.
type BatchError struct {
	Table         string
	Batch         int
	RowsCommitted int
	Err           error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("insert batch %d into %s failed after %d rows committed: %v",
		e.Batch, e.Table, e.RowsCommitted, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is the Postgres-backed Store.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps a connection pool as a Store.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Ping verifies database connectivity.
func (s *PG) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ScanOrdered pages through table in ascending orderColumn order and
// returns every row as a column-keyed map.
func (s *PG) ScanOrdered(ctx context.Context, table, orderColumn string, pageSize int) ([]map[string]any, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		quoteIdentifier(table),
		quoteIdentifier(orderColumn),
	)

	var all []map[string]any
	for offset := 0; ; offset += pageSize {
		page, err := s.scanPage(ctx, query, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (s *PG) scanPage(ctx context.Context, query string, limit, offset int) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var page []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		page = append(page, row)
	}
	return page, rows.Err()
}

// InsertBatch bulk-inserts one batch using the COPY protocol. The call is
// atomic for this batch only.
func (s *PG) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	copied, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{table},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table, err)
	}
	if copied != int64(len(rows)) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", table, copied, len(rows))
	}
	return nil
}

// quoteIdentifier quotes a SQL identifier for interpolation into dynamic
// queries (table and column names cannot be bind parameters).
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

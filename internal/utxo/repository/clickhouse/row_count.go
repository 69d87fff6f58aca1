package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// RowCount returns the number of stored rows of stream.
func (r *Repository) RowCount(ctx context.Context, stream model.Stream) (count uint64, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("row_count", stream, 0, err, start)
	}()

	table, err := rowsTable(stream)
	if err != nil {
		return 0, err
	}

	rows, err := r.conn.Query(ctx, rowCountQuery(table))
	if err != nil {
		return 0, fmt.Errorf("query %s row count: %w", stream, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		return 0, fmt.Errorf("%s row count not found", stream)
	}
	if err = rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan %s row count: %w", stream, err)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate %s row count: %w", stream, err)
	}
	return count, nil
}

func rowCountQuery(table string) string {
	return fmt.Sprintf("SELECT count() FROM %s", table)
}

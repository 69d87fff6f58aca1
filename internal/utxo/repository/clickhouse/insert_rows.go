package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// InsertRows stores rows of stream in one batch.
func (r *Repository) InsertRows(ctx context.Context, stream model.Stream, rows []model.PositionedRow) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_rows", stream, len(rows), err, start)
	}()

	if len(rows) == 0 {
		return nil
	}

	table, err := rowsTable(stream)
	if err != nil {
		return err
	}

	batch, err := r.conn.PrepareBatch(ctx, insertRowsQuery(table))
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", stream, err)
	}

	for _, row := range rows {
		if err = batch.Append(
			row.Position,
			row.Timestamp,
			row.Label,
			row.Value,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append %s row %d: %w", stream, row.Position, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert %s rows: %w", stream, err)
	}
	return nil
}

func insertRowsQuery(table string) string {
	return fmt.Sprintf(`
INSERT INTO %s (
	position,
	timestamp,
	label,
	value
) VALUES`, table)
}

package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-extractor/internal/utxo/model"
)

// TruncateRows removes every stored row of stream.
func (r *Repository) TruncateRows(ctx context.Context, stream model.Stream) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("truncate_rows", stream, 0, err, start)
	}()

	table, err := rowsTable(stream)
	if err != nil {
		return err
	}
	if err = r.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

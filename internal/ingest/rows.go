package ingest

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"insight-dashboard/internal/models"
)

const (
	batchSize  = 500
	maxWorkers = 8
)

// buildRows turns raw records into header-keyed rows. Batches are converted
// concurrently, each into its own slots, so row order is preserved.
func buildRows(ctx context.Context, headers []string, body [][]string) ([]models.Row, error) {
	rows := make([]models.Row, len(body))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(body); start += batchSize {
		end := min(start+batchSize, len(body))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				rows[i] = toRow(headers, body[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// toRow maps cells onto headers. Blank cells become nil, short records leave
// trailing headers absent and cells past the last header are dropped.
func toRow(headers []string, record []string) models.Row {
	row := make(models.Row, len(headers))
	for i, cell := range record {
		if i >= len(headers) {
			break
		}
		if strings.TrimSpace(cell) == "" {
			row[headers[i]] = nil
			continue
		}
		row[headers[i]] = cell
	}
	return row
}

package ingest

import (
	"context"
	"encoding/csv"
	"io"

	"insight-dashboard/internal/errors"
)

func readCSV(ctx context.Context, r io.Reader, maxRows int) (*table, error) {
	cr := csv.NewReader(newUniversalReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := &table{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.BadRequestWrap(err, "Failed to parse CSV file. Please check the file format.")
		}

		if isBlankRecord(record) {
			continue
		}
		if t.header == nil {
			t.header = record
			continue
		}
		if len(t.body) == maxRows {
			return nil, rowLimitError(maxRows)
		}
		t.body = append(t.body, record)
	}

	return t, nil
}

// Package ingest decodes uploaded CSV and Excel files into the rectangular
// dataset the analysis engine consumes, enforcing the upload row ceiling.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"insight-dashboard/internal/errors"
	"insight-dashboard/internal/models"
)

const DefaultMaxRows = 5000

type Limits struct {
	// MaxRows is the data row ceiling, header excluded. Zero means DefaultMaxRows.
	MaxRows int
}

func (l Limits) maxRows() int {
	if l.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return l.MaxRows
}

// table is a decoded sheet before it is turned into row records.
type table struct {
	header []string
	body   [][]string
}

// Decode reads a CSV or Excel file, chosen by filename extension and
// optionally gzip/bzip2 compressed, into a Dataset.
func Decode(ctx context.Context, filename string, r io.Reader, limits Limits) (*models.Dataset, error) {
	format, compression := DetectFormat(filename)

	if format == FormatUnknown {
		return nil, errors.UnsupportedFormat("Unsupported file format. Please upload CSV or Excel files.")
	}

	src, err := decompress(compression, r)
	if err != nil {
		return nil, errors.BadRequestWrap(err, "Could not decompress the uploaded file.")
	}

	var t *table
	switch format {
	case FormatCSV:
		t, err = readCSV(ctx, src, limits.maxRows())
	case FormatExcel:
		t, err = readExcel(ctx, src, limits.maxRows())
	}
	if err != nil {
		return nil, err
	}

	if len(t.header) == 0 || len(t.body) == 0 {
		return nil, errors.Validation("The file appears to be empty.")
	}

	headers := normalizeHeaders(t.header)
	rows, err := buildRows(ctx, headers, t.body)
	if err != nil {
		return nil, fmt.Errorf("build rows: %w", err)
	}

	return &models.Dataset{
		FileName: filename,
		Headers:  headers,
		Rows:     rows,
		RowCount: len(rows),
	}, nil
}

func rowLimitError(maxRows int) error {
	return errors.Validation(fmt.Sprintf("File exceeds the maximum limit of %d rows.", maxRows))
}

// normalizeHeaders trims names, fills blanks with "Column N" and suffixes
// duplicates ("name", "name_1", ...) so headers are unique.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))

	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Column " + strconv.Itoa(i+1)
		}

		name := h
		for n := 1; used[name]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[name] = true
		headers[i] = name
	}

	return headers
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

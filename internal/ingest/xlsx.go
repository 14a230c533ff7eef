package ingest

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"

	"insight-dashboard/internal/errors"
)

const excelParseMessage = "Failed to parse Excel file. Please check the file format."

// readExcel streams the first worksheet of a workbook.
func readExcel(ctx context.Context, r io.Reader, maxRows int) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.BadRequestWrap(err, excelParseMessage)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table{}, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, errors.BadRequestWrap(err, excelParseMessage)
	}
	defer rows.Close()

	t := &table{}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Raw values keep number formats like "#,##0" from turning 1500 into "1,500".
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.BadRequestWrap(err, excelParseMessage)
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

	if err := rows.Error(); err != nil {
		return nil, errors.BadRequestWrap(err, excelParseMessage)
	}

	return t, nil
}

package validator

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX checks the first worksheet of a workbook: customer_id in A1 and at
// least one row below it.
func XLSX() Strategy {
	return Func(validateXLSX)
}

func validateXLSX(r io.Reader) Result {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Failure("Error while reading Excel file: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Failure("Excel file has no sheets.")
	}

	header, physical, err := scanRows(f, sheets[0])
	if err != nil {
		return Failure("Error while reading Excel file: " + err.Error())
	}

	if physical == 0 {
		return Failure("Excel sheet is empty.")
	}
	if len(header) == 0 {
		return Failure("Header row is missing.")
	}
	if header[0] == "" {
		return Failure("Header cell is missing.")
	}
	if strings.TrimSpace(header[0]) != RequiredHeader {
		return Failure(MsgInvalidHeader)
	}
	if physical < 2 {
		return Failure(MsgFileEmpty)
	}

	return Success()
}

// scanRows streams the sheet and returns the cells of row 1 together with
// the number of rows holding at least one cell, counted up to two. Rows
// between populated ones come back from the iterator as empty slices.
func scanRows(f *excelize.File, sheet string) (header []string, physical int, err error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	first := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, 0, err
		}
		if first {
			header = cols
			first = false
		}
		if len(cols) > 0 {
			physical++
			if physical == 2 {
				break
			}
		}
	}
	if err := rows.Error(); err != nil {
		return nil, 0, err
	}
	return header, physical, nil
}

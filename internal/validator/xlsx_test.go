package validator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// workbook builds an xlsx file whose first sheet holds cells keyed by axis.
func workbook(t *testing.T, cells map[string]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for axis, value := range cells {
		if err := f.SetCellValue(sheet, axis, value); err != nil {
			t.Fatalf("SetCellValue(%s): %v", axis, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestXLSX(t *testing.T) {
	tests := []struct {
		name    string
		cells   map[string]string
		valid   bool
		message string
	}{
		{"header and one row", map[string]string{"A1": "customer_id", "A2": "123"}, true, ""},
		{"header with whitespace", map[string]string{"A1": " customer_id ", "A2": "1"}, true, ""},
		{"header only", map[string]string{"A1": "customer_id"}, false, MsgFileEmpty},
		{"wrong header", map[string]string{"A1": "id", "A2": "1"}, false, MsgInvalidHeader},
		{"empty sheet", map[string]string{}, false, "Excel sheet is empty."},
		{"header cell blank", map[string]string{"B1": "customer_id", "A2": "1"}, false, "Header cell is missing."},
		{"data far below header", map[string]string{"A1": "customer_id", "A10": "7"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XLSX().Validate(workbook(t, tt.cells))
			if got.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (message %q)", got.Valid, tt.valid, got.ErrorMessage)
			}
			if got.ErrorMessage != tt.message {
				t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, tt.message)
			}
		})
	}
}

func TestXLSXHeaderRowMissing(t *testing.T) {
	got := XLSX().Validate(workbook(t, map[string]string{"A2": "customer_id", "A3": "1"}))
	if got.Valid || got.ErrorMessage != "Header row is missing." {
		t.Errorf("got %+v, want Header row is missing.", got)
	}
}

func TestXLSXGarbageInput(t *testing.T) {
	got := XLSX().Validate(strings.NewReader("customer_id\n123\n"))

	if got.Valid {
		t.Fatal("plain text accepted as a workbook")
	}
	if !strings.HasPrefix(got.ErrorMessage, "Error while reading Excel file: ") {
		t.Errorf("ErrorMessage = %q", got.ErrorMessage)
	}
}

func TestXLSXLargeSheetStopsEarly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if err := sw.SetRow("A1", []interface{}{"customer_id"}); err != nil {
		t.Fatal(err)
	}
	for i := 2; i <= 20000; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i)
		if err := sw.SetRow(cell, []interface{}{i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := sw.Flush(); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	if got := XLSX().Validate(buf); !got.Valid {
		t.Errorf("got %+v, want valid", got)
	}
}

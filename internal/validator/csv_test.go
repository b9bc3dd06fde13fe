package validator

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		valid   bool
		message string
	}{
		{"header and one row", "customer_id\n123\n", true, ""},
		{"crlf line endings", "customer_id\r\n123\r\n", true, ""},
		{"header padded with spaces", "  customer_id  \n123", true, ""},
		{"leading byte order mark", "\ufeffcustomer_id\n123\n", true, ""},
		{"header only without newline", "customer_id", false, MsgFileEmpty},
		{"header only with newline", "customer_id\n", false, MsgFileEmpty},
		{"wrong header", "id\n123\n", false, MsgInvalidHeader},
		{"header with extra column", "customer_id,name\n1,a\n", false, MsgInvalidHeader},
		{"empty stream", "", false, MsgInvalidHeader},
		{"upper case header", "CUSTOMER_ID\n1\n", false, MsgInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CSV().Validate(strings.NewReader(tt.content))
			if got.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v (message %q)", got.Valid, tt.valid, got.ErrorMessage)
			}
			if got.ErrorMessage != tt.message {
				t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, tt.message)
			}
		})
	}
}

func TestCSVReadErrorBecomesFailure(t *testing.T) {
	got := CSV().Validate(iotest.ErrReader(errors.New("connection reset")))

	if got.Valid {
		t.Fatal("expected failure on read error")
	}
	want := "Error while reading CSV file: connection reset"
	if got.ErrorMessage != want {
		t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, want)
	}
}

func TestCSVReadsAcrossSmallChunks(t *testing.T) {
	got := CSV().Validate(iotest.OneByteReader(strings.NewReader("customer_id\n42\n")))
	if !got.Valid {
		t.Errorf("chunked stream rejected: %q", got.ErrorMessage)
	}
}

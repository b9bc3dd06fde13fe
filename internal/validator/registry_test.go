package validator

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"data.csv":         "csv",
		"archive.tar.xlsx": "xlsx",
		"noext":            "",
		"trailing.":        "",
		".hidden":          "hidden",
		"Report.CSV":       "CSV",
	}
	for name, want := range tests {
		if got := Extension(name); got != want {
			t.Errorf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSelectBuiltins(t *testing.T) {
	r := Default()

	for _, name := range []string{"data.csv", "DATA.CSV", "sheet.xlsx", "Sheet.XlSx"} {
		if _, err := r.Select(name); err != nil {
			t.Errorf("Select(%q): %v", name, err)
		}
	}
}

func TestSelectRejectsBlank(t *testing.T) {
	r := Default()
	for _, name := range []string{"", "   "} {
		if _, err := r.Select(name); !errors.Is(err, ErrBlankFilename) {
			t.Errorf("Select(%q) err = %v, want ErrBlankFilename", name, err)
		}
	}
}

func TestSelectUnsupported(t *testing.T) {
	r := Default()

	tests := []struct {
		name string
		ext  string
	}{
		{"data.txt", "txt"},
		{"noext", ""},
		{"trailing.", ""},
		{"old.xls", "xls"},
	}
	for _, tt := range tests {
		_, err := r.Select(tt.name)

		var unsupported *UnsupportedFormatError
		if !errors.As(err, &unsupported) {
			t.Fatalf("Select(%q) err = %v, want UnsupportedFormatError", tt.name, err)
		}
		if unsupported.Extension != tt.ext {
			t.Errorf("Select(%q) extension = %q, want %q", tt.name, unsupported.Extension, tt.ext)
		}
	}
}

func TestUnsupportedMessageNamesExtension(t *testing.T) {
	_, err := Default().Select("data.txt")
	if err == nil || !strings.Contains(err.Error(), "txt") {
		t.Errorf("error %v does not name the extension", err)
	}
	if !strings.Contains(err.Error(), "csv, xlsx") {
		t.Errorf("error %v does not list supported formats", err)
	}
}

func TestRegisterAddsFormatWithoutTouchingOthers(t *testing.T) {
	r := Default()
	r.Register(".TSV", Func(func(io.Reader) Result { return Failure("tsv stub") }))

	s, err := r.Select("export.tsv")
	if err != nil {
		t.Fatalf("Select after Register: %v", err)
	}
	if got := s.Validate(strings.NewReader("")); got.ErrorMessage != "tsv stub" {
		t.Errorf("wrong strategy selected: %+v", got)
	}

	csv, _ := r.Select("data.csv")
	if got := csv.Validate(strings.NewReader("customer_id\n1\n")); !got.Valid {
		t.Errorf("csv strategy changed: %+v", got)
	}

	want := []string{"csv", "tsv", "xlsx"}
	got := r.Extensions()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}
}

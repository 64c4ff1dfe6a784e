package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadAsCSV_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.csv")
	content := "sample_id,rs1,rs2\nS1,0,1\nS2,2,\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	data, name, err := ReadAsCSV(path)
	if err != nil {
		t.Fatalf("ReadAsCSV returned error: %v", err)
	}
	if data != content {
		t.Errorf("data = %q; want %q", data, content)
	}
	if name != "cohort.csv" {
		t.Errorf("filename = %q; want cohort.csv", name)
	}
}

func TestReadAsCSV_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"sample_id", "rs1", "rs2"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"S1", 0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A3", &[]any{"S2", 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	data, name, err := ReadAsCSV(path)
	if err != nil {
		t.Fatalf("ReadAsCSV returned error: %v", err)
	}
	want := "sample_id,rs1,rs2\nS1,0,1\nS2,2,\n"
	if data != want {
		t.Errorf("data = %q; want %q", data, want)
	}
	if name != "cohort.xlsx" {
		t.Errorf("filename = %q; want cohort.xlsx", name)
	}
}

func TestReadAsCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	headerOnly := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(headerOnly, []byte("sample_id,rs1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "unsupported", path: filepath.Join(dir, "data.json"), want: ErrUnsupportedFormat},
		{name: "header only", path: headerOnly, want: ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadAsCSV(tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v; want %v", err, tt.want)
			}
		})
	}

	if _, _, err := ReadAsCSV(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for a missing file")
	}
}

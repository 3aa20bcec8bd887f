package spreadsheet

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.xlsx")
	header := []string{"Parameter", "Value"}
	rows := [][]string{
		{"Density", "1250 kg/m3"},
		{"CementClass", "G"},
	}

	if err := WriteTable(path, header, rows); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	gotHeader, gotRows, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if !reflect.DeepEqual(gotHeader, header) {
		t.Fatalf("header = %v, want %v", gotHeader, header)
	}
	if !reflect.DeepEqual(gotRows, rows) {
		t.Fatalf("rows = %v, want %v", gotRows, rows)
	}
}

func TestWriteTableHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteTable(path, []string{"Time", "Strength"}, nil); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	header, rows, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(header) != 2 || len(rows) != 0 {
		t.Fatalf("header=%v rows=%v", header, rows)
	}
}

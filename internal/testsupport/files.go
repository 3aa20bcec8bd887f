package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteLines writes path with the given lines joined by newlines, creating
// parent directories as needed.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteStructuredExport writes a minimal structured instrument export with
// the three category parameters present and one data row.
func WriteStructuredExport(t testing.TB, path string) {
	t.Helper()

	WriteLines(t, path,
		"--Test Summary--",
		"Information\tInstrument Type\tUCA-200",
		"Density\t1250 kg/m3",
		"Compressive Strength Algorithm\tMore than 14 days",
		"CementClass\tG",
		"--Data--",
		"Time\tStrength",
		"0,5\t10,1",
	)
}

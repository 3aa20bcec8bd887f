package instrument

import "testing"

func TestFindMarkersStopsAtData(t *testing.T) {
	lines := []string{
		"preamble",
		"--Test Summary--",
		"Density\t1250 kg/m3",
		"--Data--",
		"--Summary--", // belongs to the data block, must be ignored
	}
	markers := FindMarkers(lines)
	if markers.Summary != 1 {
		t.Fatalf("summary marker at %d, want 1", markers.Summary)
	}
	if markers.Data != 3 {
		t.Fatalf("data marker at %d, want 3", markers.Data)
	}
	if !markers.HasSummaryBlock() {
		t.Fatal("expected well-formed summary block")
	}
}

func TestFindMarkersKeepsFirstSummary(t *testing.T) {
	lines := []string{"--Summary--", "x", "--Test Summary--", "--Data--"}
	markers := FindMarkers(lines)
	if markers.Summary != 0 {
		t.Fatalf("summary marker at %d, want first occurrence 0", markers.Summary)
	}
}

func TestMarkersWithoutDataBlock(t *testing.T) {
	markers := FindMarkers([]string{"--Summary--", "Density\t1250"})
	if markers.HasSummaryBlock() {
		t.Fatal("summary block requires a data marker")
	}
	if ParseSummary([]string{"--Summary--", "Density\t1250"}, markers) != nil {
		t.Fatal("expected nil summary without data marker")
	}
}

func TestParseSummaryRows(t *testing.T) {
	lines := []string{
		"--Summary--",
		"",
		"Full Path and File Name\tC:\\exports\\sample.txt",
		"Information\tInstrument Type\tUCA-200",
		"Density\t1250\tkg/m3",
		"Comment\tlong free text",
		"Orphan",
		"--Data--",
	}
	summary := ParseSummary(lines, FindMarkers(lines))
	if summary == nil {
		t.Fatal("expected summary")
	}
	if summary.Len() != 4 {
		t.Fatalf("expected 4 parameters, got %d: %+v", summary.Len(), summary.Pairs())
	}

	cases := []struct {
		fragment string
		want     string
	}{
		{"instrument type", "UCA-200"},
		{"density", "1250 kg/m3"},
		{"comment", "long free text"},
		{"orphan", ""},
	}
	for _, tc := range cases {
		if got := summary.Value(tc.fragment); got != tc.want {
			t.Fatalf("Value(%q) = %q, want %q", tc.fragment, got, tc.want)
		}
	}
}

func TestParseSummaryThreeColumnsWithoutLabel(t *testing.T) {
	lines := []string{"--Summary--", "Density\t1250\tkg/m3", "--Data--"}
	summary := ParseSummary(lines, FindMarkers(lines))
	pairs := summary.Pairs()
	if len(pairs) != 1 || pairs[0].Key != "Density" || pairs[0].Value != "1250 kg/m3" {
		t.Fatalf("unexpected pairs %+v", pairs)
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	lines := []string{
		"--Summary--",
		"Density\t1250",
		"Density\t9999",
		"--Data--",
	}
	summary := ParseSummary(lines, FindMarkers(lines))
	if summary.Len() != 2 {
		t.Fatalf("duplicates must be retained, got %d", summary.Len())
	}
	if got := summary.Value("Density"); got != "1250" {
		t.Fatalf("first match must win, got %q", got)
	}
}

func TestValueTreatsBlankAsMissing(t *testing.T) {
	summary := &Summary{}
	summary.append("CementClass", "   ")
	if got := summary.Value("CementClass"); got != "" {
		t.Fatalf("blank value must collapse to empty, got %q", got)
	}
	if got := summary.Value("Density"); got != "" {
		t.Fatalf("absent value must be empty, got %q", got)
	}
}

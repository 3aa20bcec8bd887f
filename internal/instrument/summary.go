package instrument

import "strings"

const (
	summaryMarker     = "--Summary--"
	testSummaryMarker = "--Test Summary--"
	dataMarker        = "--Data--"

	// pathHeaderPrefix marks the export's echo of its own file path, which
	// carries no parameter and is skipped during summary parsing.
	pathHeaderPrefix = "Full Path and File Name"
)

// Recognized first-column literals whose rows carry the parameter name in the
// second column rather than the first.
var labelledRowPrefixes = map[string]struct{}{
	"Information":      {},
	"Calculated Curve": {},
}

// Pair is one summary parameter.
type Pair struct {
	Key   string
	Value string
}

// Summary is the ordered parameter list parsed from a summary block.
// Duplicate keys are retained; lookups return the first match.
type Summary struct {
	pairs []Pair
}

func (s *Summary) append(key, value string) {
	s.pairs = append(s.pairs, Pair{Key: key, Value: value})
}

// Len returns the number of parameters, duplicates included.
func (s *Summary) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Pairs returns the parameters in document order.
func (s *Summary) Pairs() []Pair {
	if s == nil {
		return nil
	}
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Lookup returns the first parameter whose name contains fragment,
// case-insensitively. First match wins; later duplicates are shadowed.
func (s *Summary) Lookup(fragment string) (string, bool) {
	if s == nil {
		return "", false
	}
	needle := strings.ToLower(fragment)
	for _, pair := range s.pairs {
		if strings.Contains(strings.ToLower(pair.Key), needle) {
			return pair.Value, true
		}
	}
	return "", false
}

// Value returns the first match for fragment with surrounding whitespace
// trimmed. A missing parameter and a blank value both yield "": the
// completeness checks treat them identically.
func (s *Summary) Value(fragment string) string {
	value, ok := s.Lookup(fragment)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// Markers holds the line indexes of the block delimiters. An index of -1
// means the marker was not found.
type Markers struct {
	Summary int
	Data    int
}

// HasSummaryBlock reports whether a well-formed summary block exists: both
// markers present with the summary marker first.
func (m Markers) HasSummaryBlock() bool {
	return m.Summary >= 0 && m.Data >= 0 && m.Summary < m.Data
}

// FindMarkers scans for the first summary-start and data-start markers.
// Scanning stops at the data marker; anything after it belongs to the data
// block.
func FindMarkers(lines []string) Markers {
	markers := Markers{Summary: -1, Data: -1}
	for i, line := range lines {
		if markers.Summary < 0 && (strings.Contains(line, summaryMarker) || strings.Contains(line, testSummaryMarker)) {
			markers.Summary = i
			continue
		}
		if strings.Contains(line, dataMarker) {
			markers.Data = i
			break
		}
	}
	return markers
}

// ParseSummary builds the parameter list from the lines strictly between the
// summary and data markers. It returns nil when the markers do not delimit a
// summary block.
func ParseSummary(lines []string, markers Markers) *Summary {
	if !markers.HasSummaryBlock() {
		return nil
	}
	summary := &Summary{}
	for _, line := range lines[markers.Summary+1 : markers.Data] {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, pathHeaderPrefix) {
			continue
		}
		key, value, ok := parseSummaryLine(line)
		if !ok {
			continue
		}
		summary.append(key, value)
	}
	return summary
}

// parseSummaryLine splits one summary row on tabs, dropping empty fragments.
// Rows labelled "Information" or "Calculated Curve" carry key and value in
// the second and third fragments; otherwise the first fragment is the key
// and the remainder, space-joined, the value.
func parseSummaryLine(line string) (key, value string, ok bool) {
	var parts []string
	for _, part := range strings.Split(line, "\t") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	switch {
	case len(parts) == 0:
		return "", "", false
	case len(parts) == 3:
		if _, labelled := labelledRowPrefixes[parts[0]]; labelled {
			return parts[1], parts[2], true
		}
		return parts[0], strings.Join(parts[1:], " "), true
	case len(parts) >= 2:
		return parts[0], strings.Join(parts[1:], " "), true
	default:
		return parts[0], "", true
	}
}

package instrument

import "strings"

// instrumentTypeParam is the summary parameter consulted for the export's
// self-reported instrument type, matched by substring.
const instrumentTypeParam = "Instrument Type"

// TypeSignal identifies which evidence classified an export as structured.
type TypeSignal int

const (
	// SignalNone means no structured evidence was found; the export is
	// unstructured.
	SignalNone TypeSignal = iota
	// SignalParameter means the Instrument Type parameter matched the marker.
	SignalParameter
	// SignalFilename means only the file name matched the marker.
	SignalFilename
)

// Structured reports whether the signal classifies the export as structured.
func (s TypeSignal) Structured() bool { return s != SignalNone }

func (s TypeSignal) String() string {
	switch s {
	case SignalParameter:
		return "instrument type parameter"
	case SignalFilename:
		return "file name"
	default:
		return "none"
	}
}

// DetectStructured decides the export variant. The Instrument Type summary
// parameter takes precedence over the file name; both are matched
// case-insensitively against the marker literal.
func DetectStructured(summary *Summary, fileName, marker string) TypeSignal {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		return SignalNone
	}
	if value, ok := summary.Lookup(instrumentTypeParam); ok {
		if strings.Contains(strings.ToLower(value), marker) {
			return SignalParameter
		}
	}
	if strings.Contains(strings.ToLower(fileName), marker) {
		return SignalFilename
	}
	return SignalNone
}

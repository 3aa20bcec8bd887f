package report

import "testing"

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	first := &Recorder{}
	second := &Recorder{}
	sink := Multi(first, nil, second)

	sink.Report("folder entered", SeverityInfo)
	sink.Report("orphan found", SeverityWarning)

	for _, rec := range []*Recorder{first, second} {
		entries := rec.Entries()
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[1].Severity != SeverityWarning {
			t.Fatalf("unexpected severity %q", entries[1].Severity)
		}
	}
}

func TestDiscardToleratesUse(t *testing.T) {
	Discard().Report("ignored", SeveritySuccess)
}

func TestFuncNilReceiver(t *testing.T) {
	var f Func
	f.Report("ignored", SeverityInfo)
}

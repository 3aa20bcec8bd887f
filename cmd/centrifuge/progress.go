package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"centrifuge/internal/report"
)

// newProgressSink renders progress messages to out, coloring the severity
// label when out is a terminal.
func newProgressSink(out io.Writer) report.Sink {
	colored := false
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		colored = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return report.Func(func(message string, severity report.Severity) {
		fmt.Fprintf(out, "%s %s\n", severityLabel(severity, colored), message)
	})
}

func severityLabel(severity report.Severity, colored bool) string {
	label := fmt.Sprintf("[%s]", severity)
	if !colored {
		return label
	}
	switch severity {
	case report.SeverityWarning:
		return text.FgYellow.Sprint(label)
	case report.SeverityError:
		return text.FgRed.Sprint(label)
	case report.SeveritySuccess:
		return text.FgGreen.Sprint(label)
	default:
		return text.FgCyan.Sprint(label)
	}
}

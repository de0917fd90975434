// Package cli provides command-line interface utilities.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints the result of a C API check.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a new reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// PrintUsageError reports a missing or invalid argument.
func (r *Reporter) PrintUsageError() {
	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintln(r.out, "Need a valid PE file")
}

// PrintNotDLL reports a PE image without the DLL characteristic.
func (r *Reporter) PrintNotDLL(path string) {
	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintf(r.out, "%s is not a valid DLL\n", path)
}

// PrintMissing outputs the header followed by every missing symbol.
func (r *Reporter) PrintMissing(path string, missing []string) {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintf(r.out, "List of C API calls not found in %s exports\n", path)

	red := color.New(color.FgRed)
	for _, name := range missing {
		_, _ = red.Fprintln(r.out, name)
	}
}

// FormatError renders a fatal error the way the tool prints it on stderr.
func FormatError(err error) string {
	return fmt.Sprintf("\n错误: %v\n\n", err)
}

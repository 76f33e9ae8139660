// Package output renders guestgatectl results as text or JSON
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Printer writes command results to Out and notices to Err
type Printer struct {
	Out  io.Writer
	Err  io.Writer
	JSON bool
}

// Result prints data as indented JSON in JSON mode, else the success line
func (p Printer) Result(data any, format string, args ...any) error {
	if p.JSON {
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintf(p.Out, "✓ "+format+"\n", args...)
	return err
}

// Warn prints a notice that is never part of the JSON output
func (p Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.Err, "⚠ "+format+"\n", args...)
}

// Table prints aligned columns; rows shorter than the header are padded
func (p Printer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	writeRow(tw, header, len(header))
	for _, row := range rows {
		writeRow(tw, row, len(header))
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string, width int) {
	for i := 0; i < width; i++ {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		if i < len(cells) {
			fmt.Fprint(w, cells[i])
		}
	}
	fmt.Fprintln(w)
}

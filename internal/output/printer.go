// Package output renders pulse.eco results for the terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects how results are rendered.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be json, yaml, or table", s)
	}
}

// Printer writes results to out and advisories to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	format    Format
	useColors bool
}

// NewPrinter creates a printer. Colors are disabled when NO_COLOR is set.
func NewPrinter(out, err io.Writer, format Format) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if err == nil {
		err = os.Stderr
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return &Printer{out: out, err: err, format: format, useColors: !noColor && !color.NoColor}
}

// SetColors forces colored advisories on or off.
func (p *Printer) SetColors(on bool) { p.useColors = on }

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	if p.useColors {
		c := color.New(color.FgYellow)
		c.EnableColor()
		c.Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	if p.useColors {
		c := color.New(color.FgRed)
		c.EnableColor()
		c.Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Info prints an informational message to the error stream, keeping the
// result stream clean for piping.
func (p *Printer) Info(format string, args ...interface{}) {
	if p.useColors {
		c := color.New(color.FgCyan)
		c.EnableColor()
		c.Fprintf(p.err, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, format+"\n", args...)
}

// Print renders v in the printer's format.
func (p *Printer) Print(v any) error {
	switch p.format {
	case FormatYAML:
		return writeYAML(p.out, v)
	case FormatTable:
		handled, err := renderTable(p.out, v)
		if handled || err != nil {
			return err
		}
		return writeJSON(p.out, v)
	default:
		return writeJSON(p.out, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through the JSON encoding so field names and stamps match
// the API. JSON is valid YAML, and decoding into a node keeps key order.
func writeYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(b)).Decode(&node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	clearStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// clearStyle drops the flow and quoting styles inherited from JSON so the
// encoder picks plain block YAML wherever it can.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// Package api renders command results as YAML, JSON or a terminal table.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format for CLI commands.
type OutputFormat string

const (
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// DefaultOutput is the output format when stdout is not a terminal.
var DefaultOutput OutputFormat = OutputFormatYAML

// globalOutputFormat is set by the root command's --output flag.
var globalOutputFormat OutputFormat = OutputFormatYAML

// Tabler is implemented by results that have a human-readable table form.
type Tabler interface {
	WriteTable(w io.Writer) error
}

// ParseOutputFormat maps a --output value to a format. An empty value picks
// a table for terminals and DefaultOutput otherwise.
func ParseOutputFormat(format string, terminal bool) (OutputFormat, error) {
	switch format {
	case "json":
		return OutputFormatJSON, nil
	case "yaml":
		return OutputFormatYAML, nil
	case "table":
		return OutputFormatTable, nil
	case "":
		if terminal {
			return OutputFormatTable, nil
		}
		return DefaultOutput, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// SetOutputFormat sets the global output format.
func SetOutputFormat(format string) error {
	f, err := ParseOutputFormat(format, IsTerminal(os.Stdout))
	if err != nil {
		return err
	}
	globalOutputFormat = f
	return nil
}

// GetOutputFormat returns the current global output format.
func GetOutputFormat() OutputFormat {
	return globalOutputFormat
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, globalOutputFormat, data)
}

// OutputAs writes data to stdout in the specified format.
func OutputAs(format OutputFormat, data any) error {
	return OutputTo(os.Stdout, format, data)
}

// OutputTo writes data to the given writer in the specified format.
// Data without a table form is written as YAML when a table is requested.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	case OutputFormatTable:
		if t, ok := data.(Tabler); ok {
			return t.WriteTable(w)
		}
		return OutputTo(w, OutputFormatYAML, data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// IsStructuredOutput returns true if the output format is structured (JSON/YAML).
// Commands print human-friendly messages only when it is false.
func IsStructuredOutput() bool {
	return globalOutputFormat == OutputFormatJSON || globalOutputFormat == OutputFormatYAML
}

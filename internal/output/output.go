// Package output renders learned templates. A Snapshot of a learner can be
// written as the plain text dump, a table, JSON, YAML or CBOR, and saved to
// (optionally zstd-compressed) dump files.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatCBOR  Format = "cbor"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	case "yaml", "yml":
		return FormatYAML
	case "cbor":
		return FormatCBOR
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer. Color is never used unless enabled with
// WithColor.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorNever}
}

// WithColor sets when table patterns are colorized.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// WriteSnapshot outputs a snapshot in the configured format.
func (wr *Writer) WriteSnapshot(s *Snapshot) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(s)
	case FormatYAML:
		return wr.WriteYAML(s)
	case FormatCBOR:
		return wr.WriteCBOR(s)
	case FormatTable:
		return wr.writeTable(s)
	default:
		return wr.writeText(s)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v any) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCBOR outputs any value as deterministic CBOR.
func (wr *Writer) WriteCBOR(v any) error {
	data, err := marshalCBOR(v)
	if err != nil {
		return err
	}
	_, err = wr.w.Write(data)
	return err
}

// writeText prints every template as its list of alternative sets, a blank
// line, then the word index one token per line.
func (wr *Writer) writeText(s *Snapshot) error {
	var b strings.Builder
	if len(s.Templates) == 0 {
		b.WriteString("No templates learned yet\n")
	}
	for _, t := range s.Templates {
		b.WriteByte('[')
		for i, slot := range t.Slots {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('[')
			for j, alt := range slot {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(strconv.Quote(alt))
			}
			b.WriteByte(']')
		}
		b.WriteString("]\n")
	}

	b.WriteByte('\n')

	if len(s.Index) == 0 {
		b.WriteString("No indexed words yet\n")
	}
	for _, e := range s.Index {
		b.WriteString(e.Token)
		b.WriteString(" : ")
		b.WriteString(formatIDs(e.TemplateIDs))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(wr.w, b.String())
	return err
}

// formatIDs renders ids as [0, 4, 5].
func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (wr *Writer) writeTable(s *Snapshot) error {
	colorize := shouldColorize(wr.color, wr.w)

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHITS\tSLOTS\tFINGERPRINT\tPATTERN")
	fmt.Fprintln(tw, "--\t----\t-----\t-----------\t-------")

	for _, t := range s.Templates {
		pattern := t.Pattern
		if colorize {
			pattern = ColorizePattern(t.Slots)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", t.ID, t.Hits, len(t.Slots), t.Fingerprint, pattern)
	}

	return tw.Flush()
}

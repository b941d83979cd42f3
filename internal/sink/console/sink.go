// Package console renders packet records for terminal output.
package console

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"firestige.xyz/pktinfo/internal/core"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Sink writes records to w in one format.
type Sink struct {
	w      io.Writer
	format string
}

// NewSink returns a sink for format. An empty format means text.
func NewSink(w io.Writer, format string) (*Sink, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Sink{w: w, format: format}, nil
}

// Format returns the sink's output format.
func (s *Sink) Format() string {
	return s.format
}

// Send writes the whole record list. JSON and YAML render one document
// holding a list, text renders one record per line.
func (s *Sink) Send(records []core.PacketRecord) error {
	if records == nil {
		records = []core.PacketRecord{}
	}

	switch s.format {
	case FormatJSON:
		enc := json.NewEncoder(s.w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(s.w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, rec := range records {
			if _, err := fmt.Fprintln(s.w, rec.String()); err != nil {
				return err
			}
		}
		return nil
	}
}

// SendCount writes only the number of records.
func (s *Sink) SendCount(n int) error {
	var err error
	switch s.format {
	case FormatJSON:
		err = json.NewEncoder(s.w).Encode(map[string]int{"count": n})
	case FormatYAML:
		var out []byte
		out, err = yaml.Marshal(map[string]int{"count": n})
		if err == nil {
			_, err = s.w.Write(out)
		}
	default:
		_, err = fmt.Fprintln(s.w, n)
	}
	return err
}

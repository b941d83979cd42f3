package filter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// FromMap builds a PortFilter from a loosely typed mapping with "ports" and
// "ips" items, as handed over by scripting hosts or decoded config. Numbers
// may arrive as any integer type or as strings.
func FromMap(m map[string]any) (*PortFilter, error) {
	if m == nil {
		return nil, fmt.Errorf("extract port filter: nil mapping")
	}
	if _, ok := m["ports"]; !ok {
		return nil, fmt.Errorf("extract port filter: missing \"ports\"")
	}

	var f PortFilter
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("extract port filter: %w", err)
	}
	return &f, nil
}

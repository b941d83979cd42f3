// Package filter decides which packet records survive a run.
package filter

import (
	"slices"

	"firestige.xyz/pktinfo/internal/core"
)

// PortFilter keeps a record when its source or destination port is listed.
// IPs is carried for callers that configure it but is never matched.
type PortFilter struct {
	Ports []uint16 `mapstructure:"ports" yaml:"ports" json:"ports"`
	IPs   []string `mapstructure:"ips" yaml:"ips" json:"ips"`
}

// NewPortFilter copies ports and ips so later caller mutation has no effect.
func NewPortFilter(ports []uint16, ips []string) *PortFilter {
	return &PortFilter{
		Ports: slices.Clone(ports),
		IPs:   slices.Clone(ips),
	}
}

// Accepts reports whether rec passes the filter.
func (f *PortFilter) Accepts(rec core.PacketRecord) bool {
	return f.CheckPorts(rec.SrcPort, rec.DstPort)
}

// CheckPorts applies the membership rule to a raw port pair.
func (f *PortFilter) CheckPorts(srcPort, dstPort uint16) bool {
	return slices.Contains(f.Ports, srcPort) || slices.Contains(f.Ports, dstPort)
}

// Equal reports value equality, including order.
func (f *PortFilter) Equal(other *PortFilter) bool {
	if f == nil || other == nil {
		return f == other
	}
	return slices.Equal(f.Ports, other.Ports) && slices.Equal(f.IPs, other.IPs)
}

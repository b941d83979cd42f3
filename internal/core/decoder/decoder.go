// Package decoder implements L2-L4 protocol stack decoding.
package decoder

import (
	"fmt"

	"firestige.xyz/pktinfo/internal/core"
)

// Extractor turns one raw frame into a packet record. A non-nil error means
// the frame is skipped; it never aborts a run.
type Extractor interface {
	Extract(frame core.RawFrame) (core.PacketRecord, error)
}

// StandardDecoder chains the Ethernet, IPv4 and TCP decoders.
// It is stateless and safe for reuse across runs.
type StandardDecoder struct{}

// NewStandardDecoder creates the Ethernet -> IPv4 -> TCP extractor.
func NewStandardDecoder() *StandardDecoder {
	return &StandardDecoder{}
}

// Extract implements Extractor.
func (d *StandardDecoder) Extract(frame core.RawFrame) (core.PacketRecord, error) {
	eth, l3, err := decodeEthernet(frame.Data)
	if err != nil {
		return core.PacketRecord{}, fmt.Errorf("ethernet: %w", err)
	}
	if eth.EtherType != etherTypeIPv4 {
		return core.PacketRecord{}, fmt.Errorf("%w: ethertype 0x%04x", core.ErrNotIPv4, eth.EtherType)
	}

	ip, l4, err := decodeIPv4(l3)
	if err != nil {
		return core.PacketRecord{}, fmt.Errorf("ipv4: %w", err)
	}
	if ip.Protocol != protocolTCP {
		return core.PacketRecord{}, fmt.Errorf("%w: protocol %d", core.ErrNotTCP, ip.Protocol)
	}

	tcp, _, err := decodeTCP(l4)
	if err != nil {
		return core.PacketRecord{}, fmt.Errorf("tcp: %w", err)
	}

	return core.PacketRecord{
		SrcIP:   ip.SrcIP,
		DstIP:   ip.DstIP,
		SrcPort: tcp.SrcPort,
		DstPort: tcp.DstPort,
	}, nil
}

var standard = NewStandardDecoder()

// Standard returns the shared extractor every pipeline driver decodes with.
func Standard() *StandardDecoder {
	return standard
}

// Package core defines core data structures with zero external dependencies.
package core

import (
	"fmt"
	"net/netip"
	"time"
)

// RawFrame is one link-layer frame pulled from a capture file. Data is only
// valid until the reader is advanced.
type RawFrame struct {
	Data       []byte    // Raw frame data, zero-copy slice
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Bytes stored in the file
	OrigLen    uint32    // Original frame length on the wire
}

// PacketRecord is the normalized result of decoding an Ethernet/IPv4/TCP frame.
type PacketRecord struct {
	SrcIP   netip.Addr `json:"src_ip" yaml:"src_ip"`
	DstIP   netip.Addr `json:"dst_ip" yaml:"dst_ip"`
	SrcPort uint16     `json:"src_port" yaml:"src_port"`
	DstPort uint16     `json:"dst_port" yaml:"dst_port"`
}

// NewPacketRecord builds a record from dotted-decimal addresses.
func NewPacketRecord(srcIP, dstIP string, srcPort, dstPort uint16) (PacketRecord, error) {
	src, err := parseIPv4(srcIP)
	if err != nil {
		return PacketRecord{}, err
	}
	dst, err := parseIPv4(dstIP)
	if err != nil {
		return PacketRecord{}, err
	}
	return PacketRecord{
		SrcIP:   src,
		DstIP:   dst,
		SrcPort: srcPort,
		DstPort: dstPort,
	}, nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not ipv4", ErrInvalidAddress, s)
	}
	return addr, nil
}

// SrcIPString returns the source address in dotted-decimal form.
func (r PacketRecord) SrcIPString() string { return r.SrcIP.String() }

// DstIPString returns the destination address in dotted-decimal form.
func (r PacketRecord) DstIPString() string { return r.DstIP.String() }

func (r PacketRecord) String() string {
	return fmt.Sprintf("<PacketRecord src_ip=%s dst_ip=%s src_port=%d dst_port=%d>",
		r.SrcIP, r.DstIP, r.SrcPort, r.DstPort)
}

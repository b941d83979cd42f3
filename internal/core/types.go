// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// EthernetHeader represents L2 Ethernet frame header.
type EthernetHeader struct {
	SrcMAC    [6]byte
	DstMAC    [6]byte
	EtherType uint16 // 0x0800=IPv4, 0x0806=ARP
}

// IPv4Header represents the fixed part of an IPv4 header.
type IPv4Header struct {
	SrcIP     netip.Addr // Always a 4-octet address
	DstIP     netip.Addr
	Protocol  uint8 // TCP=6, UDP=17
	TTL       uint8
	TotalLen  uint16
	HeaderLen int // IHL*4, offset of the payload
}

// TCPHeader represents L4 TCP header.
type TCPHeader struct {
	SrcPort   uint16
	DstPort   uint16
	SeqNum    uint32
	AckNum    uint32
	Flags     uint8 // URG, ACK, PSH, RST, SYN, FIN
	HeaderLen int   // Data offset*4
}

// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/pktinfo/internal/core"
)

const (
	tcpHeaderMinLen = 20

	// Protocol numbers
	protocolTCP = 6
	protocolUDP = 17
)

// decodeTCP decodes TCP header.
func decodeTCP(data []byte) (core.TCPHeader, []byte, error) {
	if len(data) < tcpHeaderMinLen {
		return core.TCPHeader{}, nil, core.ErrPacketTooShort
	}

	tcp := core.TCPHeader{}

	// Source Port (2 bytes at offset 0)
	tcp.SrcPort = binary.BigEndian.Uint16(data[0:2])

	// Destination Port (2 bytes at offset 2)
	tcp.DstPort = binary.BigEndian.Uint16(data[2:4])

	// Sequence Number (4 bytes at offset 4)
	tcp.SeqNum = binary.BigEndian.Uint32(data[4:8])

	// Acknowledgment Number (4 bytes at offset 8)
	tcp.AckNum = binary.BigEndian.Uint32(data[8:12])

	// Data Offset (4 bits at offset 12, upper 4 bits)
	tcp.HeaderLen = int(data[12]>>4) * 4 // Data offset is in 32-bit words

	// TCP Flags (lower 6 bits of byte 13)
	tcp.Flags = data[13] & 0x3F

	// The ports sit at fixed offsets, so a bogus data offset or options cut
	// by the snap length only shorten the payload.
	payloadStart := min(max(tcp.HeaderLen, tcpHeaderMinLen), len(data))
	payload := data[payloadStart:]
	return tcp, payload, nil
}

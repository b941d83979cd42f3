package decoder

import (
	"errors"
	"net/netip"
	"testing"

	"firestige.xyz/pktinfo/internal/core"
)

func TestDecodeIPv4Basic(t *testing.T) {
	// Minimal IPv4 header (20 bytes)
	data := []byte{
		0x45,       // Version 4, IHL 5
		0x00,       // DSCP, ECN
		0x00, 0x2C, // Total Length: 44 bytes
		0x12, 0x34, // Identification
		0x00, 0x00, // Flags, Fragment Offset
		0x40,       // TTL: 64
		0x06,       // Protocol: TCP (6)
		0x00, 0x00, // Checksum
		192, 168, 1, 1, // Src IP
		192, 168, 1, 2, // Dst IP
		0x01, 0x02, 0x03, 0x04, // Payload
	}

	ip, payload, err := decodeIPv4(data)
	if err != nil {
		t.Fatalf("decodeIPv4 failed: %v", err)
	}

	// Check protocol
	if ip.Protocol != protocolTCP {
		t.Errorf("Expected protocol 6, got %d", ip.Protocol)
	}

	// Check TTL
	if ip.TTL != 64 {
		t.Errorf("Expected TTL 64, got %d", ip.TTL)
	}

	// Check total length
	if ip.TotalLen != 44 {
		t.Errorf("Expected TotalLen 44, got %d", ip.TotalLen)
	}

	if ip.HeaderLen != 20 {
		t.Errorf("Expected HeaderLen 20, got %d", ip.HeaderLen)
	}

	// Check source IP
	expectedSrcIP := netip.MustParseAddr("192.168.1.1")
	if ip.SrcIP != expectedSrcIP {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrcIP, ip.SrcIP)
	}
	if !ip.SrcIP.Is4() {
		t.Errorf("Expected 4-octet SrcIP, got %v", ip.SrcIP)
	}

	// Check destination IP
	expectedDstIP := netip.MustParseAddr("192.168.1.2")
	if ip.DstIP != expectedDstIP {
		t.Errorf("Expected DstIP %v, got %v", expectedDstIP, ip.DstIP)
	}

	// Check payload
	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
}

func TestDecodeIPv4WithOptions(t *testing.T) {
	// IPv4 header with options (IHL = 6, 24 bytes)
	data := make([]byte, 24+4)
	data[0] = 0x46 // Version 4, IHL 6
	data[9] = 17   // UDP
	copy(data[12:16], []byte{10, 0, 0, 1})
	copy(data[16:20], []byte{10, 0, 0, 2})
	// Options (4 bytes)
	data[20], data[21], data[22], data[23] = 0x01, 0x01, 0x01, 0x00
	// Payload
	data[24] = 0xAB

	ip, payload, err := decodeIPv4(data)
	if err != nil {
		t.Fatalf("decodeIPv4 failed: %v", err)
	}

	if ip.Protocol != protocolUDP {
		t.Errorf("Expected protocol 17, got %d", ip.Protocol)
	}
	if ip.HeaderLen != 24 {
		t.Errorf("Expected HeaderLen 24, got %d", ip.HeaderLen)
	}

	// Payload should start after options
	if len(payload) != 4 {
		t.Errorf("Expected payload length 4, got %d", len(payload))
	}
	if payload[0] != 0xAB {
		t.Errorf("Expected payload to start at offset 24, got first byte 0x%02x", payload[0])
	}
}

func TestDecodeIPv4TooShort(t *testing.T) {
	data := []byte{0x45, 0x00, 0x00} // Too short

	_, _, err := decodeIPv4(data)
	if !errors.Is(err, core.ErrPacketTooShort) {
		t.Errorf("Expected ErrPacketTooShort, got %v", err)
	}
}

func TestDecodeIPv4BadIHL(t *testing.T) {
	tests := []struct {
		name string
		ihl  byte
		size int
	}{
		{"IHL below minimum", 0x44, 40},
		{"IHL beyond buffer", 0x4F, 40}, // 60 bytes claimed
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			data[0] = tt.ihl
			_, _, err := decodeIPv4(data)
			if !errors.Is(err, core.ErrPacketTooShort) {
				t.Errorf("Expected ErrPacketTooShort, got %v", err)
			}
		})
	}
}

func TestDecodeIPv4WrongVersion(t *testing.T) {
	data := make([]byte, 40)
	data[0] = 0x60 // Version 6

	_, _, err := decodeIPv4(data)
	if !errors.Is(err, core.ErrUnsupportedProto) {
		t.Errorf("Expected ErrUnsupportedProto, got %v", err)
	}
}

func BenchmarkDecodeIPv4(b *testing.B) {
	data := []byte{
		0x45, 0x00, 0x00, 0x1C,
		0x12, 0x34, 0x00, 0x00,
		0x40, 0x06, 0x00, 0x00,
		192, 168, 1, 1,
		192, 168, 1, 2,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := decodeIPv4(data)
		if err != nil {
			b.Fatal(err)
		}
	}
}

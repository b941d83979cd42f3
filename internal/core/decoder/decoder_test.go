package decoder

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"firestige.xyz/pktinfo/internal/core"
)

// Helper function to create an Ethernet + IPv4 header with the given protocol.
// l4Len bytes of zeroed transport header follow.
func makeIPv4Frame(protocol byte, l4Len int) []byte {
	packet := make([]byte, 34+l4Len)

	// Ethernet header (14 bytes)
	// Dst MAC: 00:11:22:33:44:55
	packet[0], packet[1], packet[2] = 0x00, 0x11, 0x22
	packet[3], packet[4], packet[5] = 0x33, 0x44, 0x55
	// Src MAC: AA:BB:CC:DD:EE:FF
	packet[6], packet[7], packet[8] = 0xAA, 0xBB, 0xCC
	packet[9], packet[10], packet[11] = 0xDD, 0xEE, 0xFF
	// EtherType: IPv4 (0x0800)
	packet[12], packet[13] = 0x08, 0x00

	// IPv4 header (20 bytes)
	packet[14] = 0x45 // Version 4, IHL 5
	packet[15] = 0x00 // DSCP, ECN
	totalLen := 20 + l4Len
	packet[16], packet[17] = byte(totalLen>>8), byte(totalLen)
	packet[18], packet[19] = 0x12, 0x34 // Identification
	packet[20], packet[21] = 0x00, 0x00 // Flags, Fragment Offset
	packet[22] = 0x40                   // TTL: 64
	packet[23] = protocol
	packet[24], packet[25] = 0x00, 0x00 // Checksum (not calculated)
	// Src IP: 192.168.1.1
	packet[26], packet[27], packet[28], packet[29] = 192, 168, 1, 1
	// Dst IP: 192.168.1.2
	packet[30], packet[31], packet[32], packet[33] = 192, 168, 1, 2

	return packet
}

// Helper function to create a simple IPv4 TCP packet
func makeSimpleTCPPacket(srcPort, dstPort uint16) []byte {
	packet := makeIPv4Frame(protocolTCP, 20)

	// TCP header (20 bytes)
	packet[34], packet[35] = byte(srcPort>>8), byte(srcPort)
	packet[36], packet[37] = byte(dstPort>>8), byte(dstPort)
	packet[46] = 0x50 // Data Offset: 5
	packet[47] = 0x02 // SYN

	return packet
}

// Helper function to create a simple IPv4 UDP packet
func makeSimpleUDPPacket() []byte {
	packet := makeIPv4Frame(protocolUDP, 8)

	// UDP header (8 bytes)
	packet[34], packet[35] = 0x13, 0x88 // Src Port: 5000
	packet[36], packet[37] = 0x13, 0x89 // Dst Port: 5001
	packet[38], packet[39] = 0x00, 0x08 // Length: 8 bytes

	return packet
}

func makeARPPacket() []byte {
	packet := make([]byte, 42)
	for i := 0; i < 6; i++ {
		packet[i] = 0xFF
	}
	packet[12], packet[13] = 0x08, 0x06 // EtherType: ARP
	return packet
}

func TestStandardDecoderExtract(t *testing.T) {
	decoder := NewStandardDecoder()

	raw := core.RawFrame{
		Data:       makeSimpleTCPPacket(443, 51000),
		Timestamp:  time.Now(),
		CaptureLen: 54,
		OrigLen:    54,
	}

	rec, err := decoder.Extract(raw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	expectedSrcIP := netip.MustParseAddr("192.168.1.1")
	if rec.SrcIP != expectedSrcIP {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrcIP, rec.SrcIP)
	}
	expectedDstIP := netip.MustParseAddr("192.168.1.2")
	if rec.DstIP != expectedDstIP {
		t.Errorf("Expected DstIP %v, got %v", expectedDstIP, rec.DstIP)
	}
	if rec.SrcPort != 443 {
		t.Errorf("Expected SrcPort 443, got %d", rec.SrcPort)
	}
	if rec.DstPort != 51000 {
		t.Errorf("Expected DstPort 51000, got %d", rec.DstPort)
	}
}

func TestStandardDecoderSkips(t *testing.T) {
	tcp := makeSimpleTCPPacket(80, 8080)

	badIPVersion := makeSimpleTCPPacket(80, 8080)
	badIPVersion[14] = 0x65

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", []byte{}, core.ErrPacketTooShort},
		{"truncated ethernet", []byte{0x01, 0x02, 0x03}, core.ErrPacketTooShort},
		{"arp", makeARPPacket(), core.ErrNotIPv4},
		{"udp", makeSimpleUDPPacket(), core.ErrNotTCP},
		{"truncated ipv4", tcp[:14+19], core.ErrPacketTooShort},
		{"truncated tcp", tcp[:34+19], core.ErrPacketTooShort},
		{"ethernet header only", tcp[:14], core.ErrPacketTooShort},
		{"ip version 6 nibble", badIPVersion, core.ErrUnsupportedProto},
	}

	decoder := NewStandardDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decoder.Extract(core.RawFrame{Data: tt.data})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStandardDecoderIgnoresChecksum(t *testing.T) {
	packet := makeSimpleTCPPacket(22, 60000)
	packet[24], packet[25] = 0xDE, 0xAD // bogus IPv4 checksum
	packet[50], packet[51] = 0xBE, 0xEF // bogus TCP checksum

	rec, err := Standard().Extract(core.RawFrame{Data: packet})
	if err != nil {
		t.Fatalf("Expected record despite bogus checksums: %v", err)
	}
	if rec.SrcPort != 22 || rec.DstPort != 60000 {
		t.Errorf("Unexpected ports %d -> %d", rec.SrcPort, rec.DstPort)
	}
}

func TestStandardIsShared(t *testing.T) {
	if Standard() != Standard() {
		t.Fatal("Expected one shared standard decoder")
	}
	rec, err := Standard().Extract(core.RawFrame{Data: makeSimpleTCPPacket(1, 2)})
	if err != nil {
		t.Fatalf("Expected TCP packet to produce a record: %v", err)
	}
	if rec.SrcPort != 1 || rec.DstPort != 2 {
		t.Errorf("Unexpected ports %d -> %d", rec.SrcPort, rec.DstPort)
	}
}

func TestStandardDecoderSnapTruncatedOptions(t *testing.T) {
	// 14 + 20 + 40 byte SYN captured with a 64 byte snap length.
	packet := makeIPv4Frame(protocolTCP, 40)
	packet[34], packet[35] = 0x00, 0x50 // Src Port: 80
	packet[36], packet[37] = 0x01, 0xBB // Dst Port: 443
	packet[46] = 0xA0                   // Data Offset: 10
	packet[47] = 0x02                   // SYN

	rec, err := Standard().Extract(core.RawFrame{Data: packet[:64], CaptureLen: 64, OrigLen: 74})
	if err != nil {
		t.Fatalf("Expected record from snapped frame: %v", err)
	}
	if rec.SrcPort != 80 || rec.DstPort != 443 {
		t.Errorf("Unexpected ports %d -> %d", rec.SrcPort, rec.DstPort)
	}
}

func BenchmarkStandardDecoderExtract(b *testing.B) {
	decoder := NewStandardDecoder()
	packet := makeSimpleTCPPacket(443, 51000)

	raw := core.RawFrame{
		Data:       packet,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(packet)),
		OrigLen:    uint32(len(packet)),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := decoder.Extract(raw)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Package testutil builds capture files for tests.
package testutil

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x00, 0x5e, 0x00, 0x53, 0x01}
	dstMAC = net.HardwareAddr{0x00, 0x00, 0x5e, 0x00, 0x53, 0x02}
)

var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

func makeEth(ethType layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: ethType,
	}
}

func makeIPv4(t testing.TB, src, dst string, proto layers.IPProtocol) *layers.IPv4 {
	srcIP := net.ParseIP(src).To4()
	dstIP := net.ParseIP(dst).To4()
	require.NotNil(t, srcIP, "bad src ip %q", src)
	require.NotNil(t, dstIP, "bad dst ip %q", dst)
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Id:       41821,
		SrcIP:    srcIP,
		DstIP:    dstIP,
		Protocol: proto,
	}
}

// TCPFrame returns an Ethernet/IPv4/TCP frame.
func TCPFrame(t testing.TB, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip4 := makeIPv4(t, src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     1234,
		Ack:     5678,
		ACK:     true,
		PSH:     true,
		Window:  8192,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip4))

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, serializeOpts, makeEth(layers.EthernetTypeIPv4), ip4, tcp, gopacket.Payload("hello"))
	require.NoError(t, err)
	return buf.Bytes()
}

// TCPSynFrame returns an Ethernet/IPv4/TCP SYN carrying 20 bytes of
// options (MSS, SACK permitted, timestamps, window scale), 74 bytes in all.
func TCPSynFrame(t testing.TB, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip4 := makeIPv4(t, src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     1000,
		SYN:     true,
		Window:  64240,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionData: []byte{0x05, 0xb4}},
			{OptionType: layers.TCPOptionKindSACKPermitted},
			{OptionType: layers.TCPOptionKindTimestamps, OptionData: make([]byte, 8)},
			{OptionType: layers.TCPOptionKindNop},
			{OptionType: layers.TCPOptionKindWindowScale, OptionData: []byte{7}},
		},
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip4))

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, serializeOpts, makeEth(layers.EthernetTypeIPv4), ip4, tcp)
	require.NoError(t, err)
	return buf.Bytes()
}

// UDPFrame returns an Ethernet/IPv4/UDP frame.
func UDPFrame(t testing.TB, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip4 := makeIPv4(t, src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip4))

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, serializeOpts, makeEth(layers.EthernetTypeIPv4), ip4, udp, gopacket.Payload("hello"))
	require.NoError(t, err)
	return buf.Bytes()
}

// ARPFrame returns an Ethernet/ARP request frame.
func ARPFrame(t testing.TB) []byte {
	t.Helper()
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: net.IP{10, 0, 0, 1},
		DstHwAddress:      net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.IP{10, 0, 0, 2},
	}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, serializeOpts, makeEth(layers.EthernetTypeARP), arp)
	require.NoError(t, err)
	return buf.Bytes()
}

func frameInfo(i int, frame []byte) gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     time.Unix(1700000000, 0).Add(time.Duration(i) * time.Millisecond),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
}

// WritePcap writes frames to a classic pcap file under t.TempDir().
func WritePcap(t testing.TB, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for i, frame := range frames {
		require.NoError(t, w.WritePacket(frameInfo(i, frame), frame))
	}
	return path
}

// WritePcapSnap writes frames to a classic pcap file whose snap length cuts
// every frame to at most snapLen bytes, as a capture with -s would.
func WritePcapSnap(t testing.TB, snapLen int, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapped.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(uint32(snapLen), layers.LinkTypeEthernet))
	for i, frame := range frames {
		ci := frameInfo(i, frame)
		if len(frame) > snapLen {
			frame = frame[:snapLen]
			ci.CaptureLength = snapLen
		}
		require.NoError(t, w.WritePacket(ci, frame))
	}
	return path
}

// WritePcapng writes frames to a pcapng file under t.TempDir().
func WritePcapng(t testing.TB, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	require.NoError(t, err)
	for i, frame := range frames {
		require.NoError(t, w.WritePacket(frameInfo(i, frame), frame))
	}
	require.NoError(t, w.Flush())
	return path
}

// WriteRaw writes arbitrary bytes to a file under t.TempDir().
func WriteRaw(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// Scenario returns the five-frame mix used across tests: three TCP frames,
// one ARP frame and one UDP frame.
func Scenario(t testing.TB) [][]byte {
	t.Helper()
	return [][]byte{
		TCPFrame(t, "10.0.0.1", "10.0.0.2", 80, 443),
		ARPFrame(t),
		TCPFrame(t, "10.0.0.3", "10.0.0.4", 22, 9999),
		UDPFrame(t, "10.0.0.5", "10.0.0.6", 53, 5353),
		TCPFrame(t, "10.0.0.7", "10.0.0.8", 1234, 443),
	}
}

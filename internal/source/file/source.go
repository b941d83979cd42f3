// Package file reads raw frames from pcap and pcapng capture files.
package file

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktinfo/internal/core"
	"firestige.xyz/pktinfo/internal/log"
)

const pcapngMagic = 0x0A0D0D0A

// packetSource is implemented by both pcapgo.Reader and pcapgo.NgReader.
type packetSource interface {
	ZeroCopyReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Reader yields the frames of one capture file in file order. It is
// forward-only and not safe for concurrent use.
type Reader struct {
	path   string
	file   *os.File
	source packetSource
	format string
	count  int
	err    error
	done   bool
}

// Open opens path and parses the container header. Any failure is a
// *core.CaptureError.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.CaptureError{Op: "open", Path: path, Err: err}
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return nil, &core.CaptureError{Op: "parse", Path: path, Err: fmt.Errorf("read magic: %w", err)}
	}

	r := &Reader{path: path, file: f}
	if isPcapng(magic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			f.Close()
			return nil, &core.CaptureError{Op: "parse", Path: path, Err: err}
		}
		r.source, r.format = ng, "pcapng"
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			f.Close()
			return nil, &core.CaptureError{Op: "parse", Path: path, Err: err}
		}
		r.source, r.format = pr, "pcap"
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"path":     path,
		"format":   r.format,
		"linktype": r.source.LinkType().String(),
	}).Debug("capture file opened")

	return r, nil
}

func isPcapng(magic []byte) bool {
	// Section header block type is a palindrome, byte order does not matter.
	return uint32(magic[0])<<24|uint32(magic[1])<<16|uint32(magic[2])<<8|uint32(magic[3]) == pcapngMagic
}

// Next returns the next frame. It returns false once the file is exhausted
// or the next frame cannot be read; frames read before a failure remain valid
// results for the caller. Data is only valid until the following call.
func (r *Reader) Next() (core.RawFrame, bool) {
	if r.done {
		return core.RawFrame{}, false
	}

	data, ci, err := r.source.ZeroCopyReadPacketData()
	if err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			// Corrupt trailing data ends the stream like EOF does.
			r.err = err
			log.GetLogger().WithFields(map[string]interface{}{
				"path":   r.path,
				"frames": r.count,
			}).WithError(err).Warn("capture stream ended early on unreadable frame")
		}
		return core.RawFrame{}, false
	}

	r.count++
	return core.RawFrame{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}, true
}

// Err returns the read error that ended the stream, or nil after a clean EOF.
func (r *Reader) Err() error {
	return r.err
}

// Count returns the number of frames yielded so far.
func (r *Reader) Count() int {
	return r.count
}

// Format returns "pcap" or "pcapng".
func (r *Reader) Format() string {
	return r.format
}

// LinkType returns the link type declared by the container.
func (r *Reader) LinkType() layers.LinkType {
	return r.source.LinkType()
}

// Path returns the file the reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.done = true
	return err
}

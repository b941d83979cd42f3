package filter

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/bpf"
)

// portHeaderLen is the size of the pseudo-header a BPF program sees:
// source port at offset 0 and destination port at offset 2, big-endian.
const portHeaderLen = 4

// BPFPredicate runs a classic BPF program against each port pair. A non-zero
// return value accepts the pair.
type BPFPredicate struct {
	vm    *bpf.VM
	raw   []bpf.RawInstruction
	ports []uint16
}

// NewBPFPredicate validates prog and loads it into a VM.
func NewBPFPredicate(prog []bpf.Instruction) (*BPFPredicate, error) {
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("assemble bpf: %w", err)
	}
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("load bpf: %w", err)
	}
	return &BPFPredicate{vm: vm, raw: raw}, nil
}

// CompilePorts builds a program accepting a pair when either port is listed.
func CompilePorts(ports []uint16) (*BPFPredicate, error) {
	prog := make([]bpf.Instruction, 0, 4*len(ports)+3)
	for _, off := range []uint32{0, 2} {
		prog = append(prog, bpf.LoadAbsolute{Off: off, Size: 2})
		for _, p := range ports {
			prog = append(prog,
				bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(p), SkipTrue: 1},
				bpf.RetConstant{Val: portHeaderLen},
			)
		}
	}
	prog = append(prog, bpf.RetConstant{Val: 0})

	pred, err := NewBPFPredicate(prog)
	if err != nil {
		return nil, err
	}
	pred.ports = append([]uint16(nil), ports...)
	return pred, nil
}

// LoadBPF reads a program in the text form printed by tcpdump -ddd: an
// instruction count followed by one "code jt jf k" line per instruction.
// Lines may also be joined with commas.
func LoadBPF(r io.Reader) (*BPFPredicate, error) {
	var fields [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		for _, part := range strings.Split(sc.Text(), ",") {
			if f := strings.Fields(part); len(f) > 0 {
				fields = append(fields, f)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bpf: %w", err)
	}
	if len(fields) == 0 {
		return nil, errors.New("read bpf: empty program")
	}

	if len(fields[0]) != 1 {
		return nil, fmt.Errorf("read bpf: want instruction count, got %q", strings.Join(fields[0], " "))
	}
	n, err := strconv.Atoi(fields[0][0])
	if err != nil {
		return nil, fmt.Errorf("read bpf: instruction count: %w", err)
	}
	if n != len(fields)-1 {
		return nil, fmt.Errorf("read bpf: header declares %d instructions, found %d", n, len(fields)-1)
	}

	raw := make([]bpf.RawInstruction, 0, n)
	for i, f := range fields[1:] {
		ins, err := parseRawInstruction(f)
		if err != nil {
			return nil, fmt.Errorf("read bpf: instruction %d: %w", i, err)
		}
		raw = append(raw, ins)
	}

	prog, ok := bpf.Disassemble(raw)
	if !ok {
		return nil, errors.New("read bpf: program uses unsupported instructions")
	}
	return NewBPFPredicate(prog)
}

func parseRawInstruction(f []string) (bpf.RawInstruction, error) {
	if len(f) != 4 {
		return bpf.RawInstruction{}, fmt.Errorf("want 4 fields, got %d", len(f))
	}
	var vals [4]uint64
	bits := [4]int{16, 8, 8, 32}
	for i := range f {
		v, err := strconv.ParseUint(f[i], 0, bits[i])
		if err != nil {
			return bpf.RawInstruction{}, err
		}
		vals[i] = v
	}
	return bpf.RawInstruction{
		Op: uint16(vals[0]),
		Jt: uint8(vals[1]),
		Jf: uint8(vals[2]),
		K:  uint32(vals[3]),
	}, nil
}

func (p *BPFPredicate) Accepts(srcPort, dstPort uint16) (bool, error) {
	var in [portHeaderLen]byte
	binary.BigEndian.PutUint16(in[0:2], srcPort)
	binary.BigEndian.PutUint16(in[2:4], dstPort)
	n, err := p.vm.Run(in[:])
	if err != nil {
		return false, fmt.Errorf("run bpf: %w", err)
	}
	return n > 0, nil
}

// Ports returns the port list the program was compiled from. Programs loaded
// from text are opaque.
func (p *BPFPredicate) Ports() ([]uint16, error) {
	if p.ports == nil {
		return nil, errors.New("bpf program is opaque")
	}
	return p.ports, nil
}

// Instructions returns the assembled program.
func (p *BPFPredicate) Instructions() []bpf.RawInstruction {
	return p.raw
}

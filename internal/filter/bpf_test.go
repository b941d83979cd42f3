package filter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/bpf"
)

func TestCompilePortsMatchesNative(t *testing.T) {
	ports := []uint16{80, 22, 443}
	native := NewPortFilter(ports, nil)
	prog, err := CompilePorts(ports)
	require.NoError(t, err)

	pairs := [][2]uint16{
		{80, 1}, {1, 80}, {22, 9999}, {9999, 443},
		{1234, 4321}, {0, 0}, {65535, 65535}, {81, 23},
	}
	for _, pair := range pairs {
		got, err := prog.Accepts(pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, native.CheckPorts(pair[0], pair[1]), got, "%v", pair)
	}

	reported, err := prog.Ports()
	require.NoError(t, err)
	assert.Equal(t, ports, reported)
}

func TestCompilePortsEmpty(t *testing.T) {
	prog, err := CompilePorts(nil)
	require.NoError(t, err)
	ok, err := prog.Accepts(80, 443)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompilePortsManyPorts(t *testing.T) {
	ports := make([]uint16, 0, 1000)
	for p := uint16(1000); p < 2000; p++ {
		ports = append(ports, p)
	}
	prog, err := CompilePorts(ports)
	require.NoError(t, err)

	ok, err := prog.Accepts(5, 1999)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = prog.Accepts(5, 2000)
	require.NoError(t, err)
	assert.False(t, ok)
}

// dumpDDD renders prog the way tcpdump -ddd does.
func dumpDDD(t *testing.T, prog []bpf.Instruction) string {
	t.Helper()
	raw, err := bpf.Assemble(prog)
	require.NoError(t, err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n", len(raw))
	for _, ins := range raw {
		fmt.Fprintf(&sb, "%d %d %d %d\n", ins.Op, ins.Jt, ins.Jf, ins.K)
	}
	return sb.String()
}

func TestLoadBPF(t *testing.T) {
	// Accept when the destination port is 443.
	text := dumpDDD(t, []bpf.Instruction{
		bpf.LoadAbsolute{Off: 2, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 443, SkipFalse: 1},
		bpf.RetConstant{Val: 0xffff},
		bpf.RetConstant{Val: 0},
	})

	prog, err := LoadBPF(strings.NewReader(text))
	require.NoError(t, err)
	assert.Len(t, prog.Instructions(), 4)

	ok, err := prog.Accepts(1234, 443)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = prog.Accepts(443, 80)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = prog.Ports()
	assert.Error(t, err)
}

func TestLoadBPFCommaSeparated(t *testing.T) {
	text := dumpDDD(t, []bpf.Instruction{bpf.RetConstant{Val: 1}})
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", ",")

	prog, err := LoadBPF(strings.NewReader(text))
	require.NoError(t, err)
	ok, err := prog.Accepts(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadBPFRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no count", "6 0 0 1\n"},
		{"count mismatch", "2\n6 0 0 1\n"},
		{"bad field", "1\n6 0 x 1\n"},
		{"short line", "1\n6 0 0\n"},
		{"no return", "1\n40 0 0 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBPF(strings.NewReader(tt.text))
			assert.Error(t, err)
		})
	}
}

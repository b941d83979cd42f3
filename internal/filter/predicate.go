package filter

import "firestige.xyz/pktinfo/internal/core"

// Predicate is an externally supplied accept rule over a port pair. An
// error means the predicate could not be evaluated at all.
type Predicate interface {
	Accepts(srcPort, dstPort uint16) (bool, error)
}

// PortsReporter is optionally implemented by predicates that can describe
// the ports they match on. It is diagnostic only.
type PortsReporter interface {
	Ports() ([]uint16, error)
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(srcPort, dstPort uint16) (bool, error)

func (fn PredicateFunc) Accepts(srcPort, dstPort uint16) (bool, error) {
	return fn(srcPort, dstPort)
}

// NativePredicate exposes a PortFilter through the Predicate interface.
type NativePredicate struct {
	filter *PortFilter
}

// Native wraps f as a Predicate that never fails.
func Native(f *PortFilter) *NativePredicate {
	return &NativePredicate{filter: f}
}

func (p *NativePredicate) Accepts(srcPort, dstPort uint16) (bool, error) {
	return p.filter.CheckPorts(srcPort, dstPort), nil
}

func (p *NativePredicate) Ports() ([]uint16, error) {
	return p.filter.Ports, nil
}

// AcceptRecord evaluates p against rec and wraps any failure in a
// *core.FilterInvocationError.
func AcceptRecord(p Predicate, rec core.PacketRecord) (bool, error) {
	ok, err := p.Accepts(rec.SrcPort, rec.DstPort)
	if err != nil {
		return false, &core.FilterInvocationError{SrcPort: rec.SrcPort, DstPort: rec.DstPort, Err: err}
	}
	return ok, nil
}

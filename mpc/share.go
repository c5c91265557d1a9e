package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// ReplicatedShare is one party's pair of share components. Party i holds
// components (i, i+1 mod 3); every component therefore has exactly two
// holders, and the three distinct components combined under the ring's
// addition recover the plaintext.
type ReplicatedShare struct {
	s [2]ring.Vec
}

func (rs *ReplicatedShare) Clone() *ReplicatedShare {
	return &ReplicatedShare{s: [2]ring.Vec{rs.s[0].Copy(), rs.s[1].Copy()}}
}

// SharedTensor is a logical secret-shared value: an array of per-party
// share handles plus the metadata all parties agree on. It is never one
// physical object; within a dispatched step a party touches only its own
// handle.
type SharedTensor struct {
	shares [NumParties]*ReplicatedShare
	shape  []int
	rg     ring.Ring
	base   int
	prec   int
}

func numel(shape []int) (int, error) {
	if shape == nil {
		return 0, xerrors.Errorf("missing tensor shape: %w", ErrShape)
	}
	n := 1
	for _, d := range shape {
		if d < 1 {
			return 0, xerrors.Errorf("dimension %d: %w", d, ErrShape)
		}
		n *= d
	}
	return n, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newSharedTensor(shares [NumParties]*ReplicatedShare, shape []int, rg ring.Ring, base, prec int) *SharedTensor {
	cp := make([]int, len(shape))
	copy(cp, shape)
	return &SharedTensor{shares: shares, shape: cp, rg: rg, base: base, prec: prec}
}

func (t *SharedTensor) Shape() []int       { return t.shape }
func (t *SharedTensor) Ring() ring.Ring    { return t.rg }
func (t *SharedTensor) Config() (int, int) { return t.base, t.prec }

func (t *SharedTensor) Numel() int {
	n := 1
	for _, d := range t.shape {
		n *= d
	}
	return n
}

func (t *SharedTensor) Clone() *SharedTensor {
	var shares [NumParties]*ReplicatedShare
	for i := range shares {
		shares[i] = t.shares[i].Clone()
	}
	return newSharedTensor(shares, t.shape, t.rg, t.base, t.prec)
}

// SetConfig overrides the fixed-point configuration in place.
func (t *SharedTensor) SetConfig(base, prec int) {
	t.base, t.prec = base, prec
}

// OverrideConfig forces a transient configuration and returns the release
// function restoring the previous one. Callers defer the release so the
// restore runs on every exit path, including failure.
func (t *SharedTensor) OverrideConfig(base, prec int) func() {
	oldBase, oldPrec := t.base, t.prec
	t.base, t.prec = base, prec
	return func() { t.base, t.prec = oldBase, oldPrec }
}

// roles of component 0, whose holders apply public constants exactly once.
const (
	pubHolderFirst  = 0 // holds component 0 in slot 0
	pubHolderSecond = 2 // holds component 0 in slot 1
)

// Distribute deals fresh replicated shares of plaintext values, using the
// dealer PRG for the masking randomness.
func (s *Session) Distribute(values ring.Vec, rg ring.Ring, shape []int, base, prec int) (*SharedTensor, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}
	if len(values) != n {
		return nil, xerrors.Errorf("%d values for shape %v: %w", len(values), shape, ErrShape)
	}
	c0 := s.dealer.RandVec(rg, n)
	c1 := s.dealer.RandVec(rg, n)
	c2 := rg.SubVec(rg.SubVec(values, c0), c1)
	return s.distributeComponents([NumParties]ring.Vec{c0, c1, c2}, rg, shape, base, prec)
}

// distributeComponents assigns three precomputed components to their
// replicated holders: party i receives (c_i, c_{i+1}).
func (s *Session) distributeComponents(c [NumParties]ring.Vec, rg ring.Ring, shape []int, base, prec int) (*SharedTensor, error) {
	if _, err := numel(shape); err != nil {
		return nil, err
	}
	var shares [NumParties]*ReplicatedShare
	for i := 0; i < NumParties; i++ {
		shares[i] = &ReplicatedShare{s: [2]ring.Vec{c[i].Copy(), c[next(i)].Copy()}}
	}
	return newSharedTensor(shares, shape, rg, base, prec), nil
}

// ShareFloats encodes real values under the session's fixed-point
// configuration and distributes them over the working ring.
func (s *Session) ShareFloats(vals []float64, shape []int) (*SharedTensor, error) {
	return s.Distribute(s.rg.EncodeVec(vals, s.base, s.fracBits), s.rg, shape, s.base, s.fracBits)
}

// ShareRaw distributes already-encoded ring values with precision zero.
func (s *Session) ShareRaw(values ring.Vec, rg ring.Ring, shape []int) (*SharedTensor, error) {
	return s.Distribute(values, rg, shape, s.base, 0)
}

// sharePublic embeds a public vector as a canonical sharing: component 0
// carries the value, the other components are zero.
func (s *Session) sharePublic(values ring.Vec, rg ring.Ring, shape []int, base, prec int) (*SharedTensor, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}
	if len(values) != n {
		return nil, xerrors.Errorf("%d values for shape %v: %w", len(values), shape, ErrShape)
	}
	return s.distributeComponents([NumParties]ring.Vec{values, ring.Zeros(n), ring.Zeros(n)}, rg, shape, base, prec)
}

// Reconstruct opens a shared tensor: a synchronization barrier collecting
// all three components. In malicious mode the two replicas of every
// component must agree, otherwise the call aborts. Only protocol-designated
// values may ever cross this boundary.
func (s *Session) Reconstruct(t *SharedTensor) (ring.Vec, error) {
	if s.mode == Malicious {
		if err := checkReplicas(t); err != nil {
			return nil, err
		}
	}
	out := ring.Zeros(t.Numel())
	for j := 0; j < NumParties; j++ {
		out = t.rg.AddVec(out, t.shares[j].s[0])
	}
	return out, nil
}

// checkReplicas compares the two holders' copies of every component.
func checkReplicas(t *SharedTensor) error {
	for j := 0; j < NumParties; j++ {
		comp := t.shares[j].s[0]
		replica := t.shares[prev(j)].s[1]
		for i := range comp {
			if comp[i] != replica[i] {
				return xerrors.Errorf("share replicas diverge at component %d: %w", j, ErrMaliciousAbort)
			}
		}
	}
	return nil
}

// RevealFloats reconstructs and decodes under the tensor's configuration.
func (s *Session) RevealFloats(t *SharedTensor) ([]float64, error) {
	v, err := s.Reconstruct(t)
	if err != nil {
		return nil, err
	}
	return t.rg.DecodeVec(v, t.base, t.prec), nil
}

// openComponents reveals the three raw share components themselves, under
// the same replica cross-check as Reconstruct in malicious mode. Only the
// wrap protocol is designated to open raw components (of masked values);
// nothing else may call this.
func (s *Session) openComponents(t *SharedTensor) ([NumParties]ring.Vec, error) {
	var out [NumParties]ring.Vec
	if s.mode == Malicious {
		if err := checkReplicas(t); err != nil {
			return out, err
		}
	}
	for j := 0; j < NumParties; j++ {
		out[j] = t.shares[j].s[0].Copy()
	}
	return out, nil
}

func checkSameLayout(x, y *SharedTensor) error {
	if !sameShape(x.shape, y.shape) {
		return xerrors.Errorf("shapes %v and %v: %w", x.shape, y.shape, ErrShape)
	}
	if x.rg != y.rg {
		return xerrors.Errorf("mismatched rings: %w", ErrShape)
	}
	return nil
}

// elementwise local operations: dispatched so each party transforms its own
// handle; results remain shares, no synchronization.

func addShared(s *Session, x, y *SharedTensor) (*SharedTensor, error) {
	if err := checkSameLayout(x, y); err != nil {
		return nil, err
	}
	rg := x.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		xs, ys := x.shares[p.pid], y.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{
			rg.AddVec(xs.s[0], ys.s[0]),
			rg.AddVec(xs.s[1], ys.s[1]),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, x.shape, rg, x.base, x.prec), nil
}

func subShared(s *Session, x, y *SharedTensor) (*SharedTensor, error) {
	if err := checkSameLayout(x, y); err != nil {
		return nil, err
	}
	rg := x.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		xs, ys := x.shares[p.pid], y.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{
			rg.SubVec(xs.s[0], ys.s[0]),
			rg.SubVec(xs.s[1], ys.s[1]),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, x.shape, rg, x.base, x.prec), nil
}

// xorShared is addition over the boolean ring.
func xorShared(s *Session, x, y *SharedTensor) (*SharedTensor, error) {
	if x.rg.Modulus() != 2 || y.rg.Modulus() != 2 {
		return nil, xerrors.Errorf("xor requires boolean shares: %w", ErrShape)
	}
	return addShared(s, x, y)
}

// addPublic folds a public vector into the sharing: exactly the two holders
// of component 0 apply it, so reconstruction counts it once.
func addPublic(s *Session, t *SharedTensor, pub ring.Vec) (*SharedTensor, error) {
	rg := t.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		rs := t.shares[p.pid].Clone()
		switch p.pid {
		case pubHolderFirst:
			rs.s[0] = rg.AddVec(rs.s[0], pub)
		case pubHolderSecond:
			rs.s[1] = rg.AddVec(rs.s[1], pub)
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, t.shape, rg, t.base, t.prec), nil
}

func addPublicScalar(s *Session, t *SharedTensor, v uint64) (*SharedTensor, error) {
	return addPublic(s, t, ring.Const(t.Numel(), v))
}

func negShared(s *Session, t *SharedTensor) (*SharedTensor, error) {
	rg := t.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		rs := t.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{rg.NegVec(rs.s[0]), rg.NegVec(rs.s[1])}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, t.shape, rg, t.base, t.prec), nil
}

// subFromPublic computes pub - t.
func subFromPublic(s *Session, pub ring.Vec, t *SharedTensor) (*SharedTensor, error) {
	neg, err := negShared(s, t)
	if err != nil {
		return nil, err
	}
	return addPublic(s, neg, pub)
}

// mulPublic scales every component by a public vector.
func mulPublic(s *Session, t *SharedTensor, pub ring.Vec) (*SharedTensor, error) {
	rg := t.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		rs := t.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{
			rg.MulElemVec(rs.s[0], pub),
			rg.MulElemVec(rs.s[1], pub),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, t.shape, rg, t.base, t.prec), nil
}

func mulPublicScalar(s *Session, t *SharedTensor, v uint64) (*SharedTensor, error) {
	return mulPublic(s, t, ring.Const(t.Numel(), v))
}

// shlShared shifts every component left, multiplying the value by 2^k.
func shlShared(s *Session, t *SharedTensor, k int) (*SharedTensor, error) {
	rg := t.rg
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		rs := t.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{rg.ShlVec(rs.s[0], k), rg.ShlVec(rs.s[1], k)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, t.shape, rg, t.base, t.prec), nil
}

// bitExtract pulls bit i out of every component, yielding a boolean-ring
// sharing whose components are the component bits.
func bitExtract(s *Session, t *SharedTensor, i int) (*SharedTensor, error) {
	rg := t.rg
	rg2 := ring.Pow2(1)
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		rs := t.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{rg.BitVec(rs.s[0], i), rg.BitVec(rs.s[1], i)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, t.shape, rg2, t.base, 0), nil
}

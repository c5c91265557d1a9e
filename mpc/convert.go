package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// Share-conversion helpers. These run through the session dealer acting as a
// trusted third party: the value is reconstructed dealer-side, converted in
// the clear, and dealt back as fresh shares. The interactive variants are
// drop-in replacements with the same signatures.

// Truncate removes precision fractional digits from every element, with
// signed floor semantics. precision holds either a single exponent applied
// everywhere or one exponent per element.
func (f *Falcon) Truncate(t *SharedTensor, precision []int) (*SharedTensor, error) {
	return f.truncateWith(t, t.base, precision)
}

// truncateWith truncates under an explicit encoding base, which may differ
// from the tensor's current one while a transient configuration is active.
func (f *Falcon) truncateWith(t *SharedTensor, base int, precision []int) (*SharedTensor, error) {
	n := t.Numel()
	if len(precision) != 1 && len(precision) != n {
		return nil, xerrors.Errorf("%d truncation exponents for %d elements: %w", len(precision), n, ErrShape)
	}

	v, err := f.sess.Reconstruct(t)
	if err != nil {
		return nil, err
	}
	out := ring.Zeros(n)
	for i := range v {
		p := precision[0]
		if len(precision) == n {
			p = precision[i]
		}
		out[i] = t.rg.TruncateSigned(v[i], base, p)
	}
	return f.sess.Distribute(out, t.rg, t.shape, t.base, t.prec)
}

// BitDecompose splits a shared tensor into shares of its bits over dst, one
// tensor per bit position with the least significant bit at index 0.
func (f *Falcon) BitDecompose(t *SharedTensor, dst ring.Ring) ([]*SharedTensor, error) {
	v, err := f.sess.Reconstruct(t)
	if err != nil {
		return nil, err
	}
	nbits := t.rg.BitLen()
	bits := make([]*SharedTensor, nbits)
	for i := 0; i < nbits; i++ {
		bits[i], err = f.sess.Distribute(t.rg.BitVec(v, i), dst, t.shape, t.base, 0)
		if err != nil {
			return nil, err
		}
	}
	return bits, nil
}

// BitInjection lifts a boolean sharing into an arithmetic one over dst
// without opening the bit. Each boolean component is injected as a canonical
// arithmetic sharing in its own slot, then the three injections are combined
// with the arithmetic xor a + b - 2ab.
func (f *Falcon) BitInjection(b *SharedTensor, dst ring.Ring) (*SharedTensor, error) {
	if b.rg.Modulus() != 2 {
		return nil, xerrors.Errorf("bit injection requires boolean shares: %w", ErrShape)
	}

	n := b.Numel()
	inj := make([]*SharedTensor, NumParties)
	for j := 0; j < NumParties; j++ {
		var c [NumParties]ring.Vec
		for k := 0; k < NumParties; k++ {
			c[k] = ring.Zeros(n)
		}
		c[j] = b.shares[j].s[0].Copy()
		t, err := f.sess.distributeComponents(c, dst, b.shape, b.base, 0)
		if err != nil {
			return nil, err
		}
		inj[j] = t
	}

	out := inj[0]
	for j := 1; j < NumParties; j++ {
		var err error
		out, err = f.xorArith(out, inj[j])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// xorArith is the xor of two arithmetically shared bits.
func (f *Falcon) xorArith(a, b *SharedTensor) (*SharedTensor, error) {
	ab, err := f.Multiply(a, b)
	if err != nil {
		return nil, err
	}
	sum, err := addShared(f.sess, a, b)
	if err != nil {
		return nil, err
	}
	ab2, err := mulPublicScalar(f.sess, ab, 2)
	if err != nil {
		return nil, err
	}
	return subShared(f.sess, sum, ab2)
}

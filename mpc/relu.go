package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// DReLU computes a boolean sharing of the derivative of ReLU: 1 where the
// signed value is nonnegative, 0 where it is negative. The sign is the
// componentwise msb xor corrected by the carry of the components shifted
// one position left, which drops the msb before the carry is taken. The
// msb position follows the tensor's own ring, which may be narrower than
// the session's working ring.
func (f *Falcon) DReLU(a *SharedTensor) (*SharedTensor, error) {
	if a.rg.IsPrime() {
		return nil, xerrors.Errorf("sign is defined over power-of-two rings: %w", ErrShape)
	}
	msbIdx := a.rg.BitLen() - 1

	msb, err := bitExtract(f.sess, a, msbIdx)
	if err != nil {
		return nil, err
	}
	shifted, err := shlShared(f.sess, a, 1)
	if err != nil {
		return nil, err
	}
	carry, err := f.Wrap(shifted)
	if err != nil {
		return nil, err
	}

	sign, err := xorShared(f.sess, msb, carry)
	if err != nil {
		return nil, err
	}
	return addPublicScalar(f.sess, sign, 1)
}

// ReLU returns a where a is nonnegative and zero elsewhere, via an oblivious
// selection on the inverted DReLU bit.
func (f *Falcon) ReLU(a *SharedTensor) (*SharedTensor, error) {
	b, err := f.DReLU(a)
	if err != nil {
		return nil, err
	}
	b, err = addPublicScalar(f.sess, b, 1)
	if err != nil {
		return nil, err
	}
	zero, err := f.sess.sharePublic(ring.Zeros(a.Numel()), a.rg, a.shape, a.base, a.prec)
	if err != nil {
		return nil, err
	}
	return f.Select(a, zero, b)
}

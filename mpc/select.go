package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// Select obliviously returns x where b is 0 and y where b is 1. The selector
// must be shared over the boolean ring; it is masked with a fresh random bit
// before the only value that gets opened, so the opened mask carries no
// information about b.
func (f *Falcon) Select(x, y, b *SharedTensor) (*SharedTensor, error) {
	if b.rg.Modulus() != 2 {
		return nil, xerrors.Errorf("selector ring %d, must be boolean: %w", b.rg.Modulus(), ErrShape)
	}
	if err := checkSameLayout(x, y); err != nil {
		return nil, err
	}
	if !sameShape(b.shape, x.shape) {
		return nil, xerrors.Errorf("selector shape %v for operands %v: %w", b.shape, x.shape, ErrShape)
	}

	n := x.Numel()
	c, err := f.sess.PRSSShare(b.rg, b.shape)
	if err != nil {
		return nil, err
	}
	cr, err := f.BitInjection(c, x.rg)
	if err != nil {
		return nil, err
	}

	masked, err := xorShared(f.sess, b, c)
	if err != nil {
		return nil, err
	}
	mask, err := f.sess.Reconstruct(masked)
	if err != nil {
		return nil, err
	}
	flip := make(ring.Vec, n)
	for i := range flip {
		flip[i] = 1 - mask[i]
	}

	// d = mask - cr*mask + cr*(1-mask), an arithmetic sharing of b.
	crMask, err := mulPublic(f.sess, cr, mask)
	if err != nil {
		return nil, err
	}
	crFlip, err := mulPublic(f.sess, cr, flip)
	if err != nil {
		return nil, err
	}
	d, err := subFromPublic(f.sess, mask, crMask)
	if err != nil {
		return nil, err
	}
	d, err = addShared(f.sess, d, crFlip)
	if err != nil {
		return nil, err
	}

	// d carries no fractional scale, so the product keeps y - x's encoding
	// and the final sum stays in x's. The order matters.
	diff, err := subShared(f.sess, y, x)
	if err != nil {
		return nil, err
	}
	gated, err := f.Multiply(d, diff)
	if err != nil {
		return nil, err
	}
	return addShared(f.sess, x, gated)
}

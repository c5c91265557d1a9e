package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// PrivateCompare compares a bitwise-shared value against a public one: given
// shares of the bits of x over the comparison field, least significant bit
// first, it returns a boolean sharing of x >= r.
//
// For each bit position, with beta the shared blinding bit,
//
//	u_i = (1 - 2*beta) * (x_i - r_i)
//	w_i = x_i xor r_i
//	c_i = u_i + 1 + sum_{j>i} w_j
//
// some c_i is zero exactly when the first differing bit favors r (beta = 0)
// or favors x (beta = 1). The product of the c_i is blinded by a random
// group element and opened; only its zeroness is meaningful. The factor
// 1 - beta + sum_i w_i zeroes the product on the beta = 1 branch when
// x = r, so both branches open to the >= relation. The sums stay below the
// field modulus, so they never alias zero.
func (f *Falcon) PrivateCompare(xBits []*SharedTensor, r ring.Vec) (*SharedTensor, error) {
	if len(xBits) == 0 {
		return nil, xerrors.Errorf("empty bit decomposition: %w", ErrShape)
	}
	rgp := ring.CompareField()
	shape := xBits[0].Shape()
	n := xBits[0].Numel()
	for _, b := range xBits {
		if b.rg != rgp {
			return nil, xerrors.Errorf("compare bits must live in the comparison field: %w", ErrShape)
		}
		if !sameShape(b.shape, shape) {
			return nil, xerrors.Errorf("ragged bit decomposition: %w", ErrShape)
		}
	}
	if len(r) != n {
		return nil, xerrors.Errorf("%d public values for %d elements: %w", len(r), n, ErrShape)
	}

	beta2, err := f.sess.PRSSShare(ring.Pow2(1), shape)
	if err != nil {
		return nil, err
	}
	betaP, err := f.BitInjection(beta2, rgp)
	if err != nil {
		return nil, err
	}
	m, err := f.RandomPrimeGroup(shape)
	if err != nil {
		return nil, err
	}

	twoBeta, err := mulPublicScalar(f.sess, betaP, 2)
	if err != nil {
		return nil, err
	}
	signFlip, err := subFromPublic(f.sess, ring.Const(n, 1), twoBeta)
	if err != nil {
		return nil, err
	}

	// msb first so the running sum holds the strictly-higher w terms.
	prod := m
	var wSum *SharedTensor
	for i := len(xBits) - 1; i >= 0; i-- {
		ri := rgp.BitVec(r, i)

		diff, err := addPublic(f.sess, xBits[i], rgp.NegVec(ri))
		if err != nil {
			return nil, err
		}
		u, err := f.Multiply(signFlip, diff)
		if err != nil {
			return nil, err
		}
		c, err := addPublicScalar(f.sess, u, 1)
		if err != nil {
			return nil, err
		}
		if wSum != nil {
			c, err = addShared(f.sess, c, wSum)
			if err != nil {
				return nil, err
			}
		}
		prod, err = f.Multiply(prod, c)
		if err != nil {
			return nil, err
		}

		// w_i = x_i + r_i - 2 r_i x_i
		coef := make(ring.Vec, n)
		for e := range coef {
			coef[e] = rgp.Sub(1, rgp.Add(ri[e], ri[e]))
		}
		w, err := mulPublic(f.sess, xBits[i], coef)
		if err != nil {
			return nil, err
		}
		w, err = addPublic(f.sess, w, ri)
		if err != nil {
			return nil, err
		}
		if wSum == nil {
			wSum = w
		} else {
			wSum, err = addShared(f.sess, wSum, w)
			if err != nil {
				return nil, err
			}
		}
	}

	equal, err := addPublicScalar(f.sess, wSum, 1)
	if err != nil {
		return nil, err
	}
	equal, err = subShared(f.sess, equal, betaP)
	if err != nil {
		return nil, err
	}
	prod, err = f.Multiply(prod, equal)
	if err != nil {
		return nil, err
	}

	opened, err := f.sess.Reconstruct(prod)
	if err != nil {
		return nil, err
	}
	betaPrime := ring.Zeros(n)
	for i := range opened {
		if opened[i] != 0 {
			betaPrime[i] = 1
		}
	}
	return addPublic(f.sess, beta2, betaPrime)
}

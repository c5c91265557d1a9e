package mpc

import (
	"math"
	"math/big"

	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// BoundingPow finds, per element, the power alpha with 2^alpha <= x < 2^(alpha+1),
// by binary search over the exponent range. Each round opens one comparison
// bit, so the bounding powers themselves are public; only the divisor's
// remaining bits stay hidden.
func (f *Falcon) BoundingPow(x *SharedTensor) ([]int, error) {
	rg := x.rg
	n := x.Numel()
	bitExp := int(math.Log2(float64(rg.BitLen())))
	scale := rg.Scale(x.base, x.prec)

	alpha := make([]int, n)
	for e := range alpha {
		alpha[e] = -1
	}

	for i := bitExp - 1; i >= 0; i-- {
		threshold := make(ring.Vec, n)
		for e := range threshold {
			exp := (1 << uint(i)) + alpha[e]
			threshold[e] = rg.Neg(rg.Mul(rg.Exp(2, uint64(exp)), scale))
		}
		c, err := addPublic(f.sess, x, threshold)
		if err != nil {
			return nil, err
		}
		bit, err := f.DReLU(c)
		if err != nil {
			return nil, err
		}
		opened, err := f.sess.Reconstruct(bit)
		if err != nil {
			return nil, err
		}
		for e := range alpha {
			if opened[e] == 1 {
				alpha[e] += 1 << uint(i)
			}
		}
	}
	return alpha, nil
}

// goldschmidtConst returns floor(2.9142 * base^n) in the ring, computed
// exactly so large normalization scales do not lose mantissa bits.
func goldschmidtConst(rg ring.Ring, base, n int) uint64 {
	scale := new(big.Int).Exp(big.NewInt(int64(base)), big.NewInt(int64(n)), nil)
	v := new(big.Int).Mul(scale, big.NewInt(29142))
	v.Div(v, big.NewInt(10000))
	v.Mod(v, rg.BigModulus())
	return v.Uint64()
}

// Divide approximates a / b for a secret divisor using Goldschmidt's
// iteration. The divisor is normalized into [0.5, 1) at precision
// n = alpha + 1 + precision, the reciprocal is refined through two
// correction terms, and the product with the numerator is truncated by
// 2n - precision to land back on the working encoding. Truncation after the
// intermediate products is explicit, so the automatic one is suspended by
// overriding both operand configurations for the duration of the call.
func (f *Falcon) Divide(a, b *SharedTensor) (*SharedTensor, error) {
	if err := checkSameLayout(a, b); err != nil {
		return nil, err
	}
	base, prec := a.Config()
	rg := a.rg
	n := a.Numel()

	alpha, err := f.BoundingPow(b)
	if err != nil {
		return nil, err
	}

	defer a.OverrideConfig(1, 0)()
	defer b.OverrideConfig(1, 0)()

	normPrec := make([]int, n)
	finalPrec := make([]int, n)
	c29 := make(ring.Vec, n)
	one := make(ring.Vec, n)
	for e := 0; e < n; e++ {
		normPrec[e] = alpha[e] + 1 + prec
		finalPrec[e] = 2*normPrec[e] - prec
		// Intermediate products carry scale base^(2*normPrec) and must
		// still fit the ring.
		if base > 1 && 2*normPrec[e] >= rg.BitLen() {
			return nil, xerrors.Errorf("normalization scale %d^%d overflows ring 2^%d: %w",
				base, 2*normPrec[e], rg.BitLen(), ErrConfiguration)
		}
		c29[e] = goldschmidtConst(rg, base, normPrec[e])
		one[e] = rg.Scale(base, normPrec[e])
	}

	twoB, err := mulPublicScalar(f.sess, b, 2)
	if err != nil {
		return nil, err
	}
	w0, err := subFromPublic(f.sess, c29, twoB)
	if err != nil {
		return nil, err
	}

	xw0, err := f.Multiply(b, w0)
	if err != nil {
		return nil, err
	}
	xw0, err = f.truncateWith(xw0, base, normPrec)
	if err != nil {
		return nil, err
	}

	eps0, err := subFromPublic(f.sess, one, xw0)
	if err != nil {
		return nil, err
	}
	eps1, err := f.Multiply(eps0, eps0)
	if err != nil {
		return nil, err
	}
	eps1, err = f.truncateWith(eps1, base, normPrec)
	if err != nil {
		return nil, err
	}

	termOne, err := addPublic(f.sess, eps0, one)
	if err != nil {
		return nil, err
	}
	termTwo, err := addPublic(f.sess, eps1, one)
	if err != nil {
		return nil, err
	}
	termMul, err := f.Multiply(termOne, termTwo)
	if err != nil {
		return nil, err
	}
	termMul, err = f.truncateWith(termMul, base, normPrec)
	if err != nil {
		return nil, err
	}

	bInv, err := f.Multiply(w0, termMul)
	if err != nil {
		return nil, err
	}
	bInv, err = f.truncateWith(bInv, base, normPrec)
	if err != nil {
		return nil, err
	}

	result, err := f.Multiply(a, bInv)
	if err != nil {
		return nil, err
	}
	result, err = f.truncateWith(result, base, finalPrec)
	if err != nil {
		return nil, err
	}
	result.SetConfig(base, prec)
	return result, nil
}

// DividePublic divides by a public vector. The reciprocal pipeline runs
// entirely in the clear; the only shared step is the final product with the
// numerator, truncated by 2n - precision exactly as in the private path.
func (f *Falcon) DividePublic(a *SharedTensor, b []float64) (*SharedTensor, error) {
	base, prec := a.Config()
	rg := a.rg
	n := a.Numel()
	if len(b) != n {
		return nil, xerrors.Errorf("%d divisors for %d elements: %w", len(b), n, ErrShape)
	}
	for _, v := range b {
		if v <= 0 {
			return nil, xerrors.Errorf("nonpositive public divisor %v: %w", v, ErrConfiguration)
		}
	}

	defer a.OverrideConfig(1, 0)()

	bInv := make(ring.Vec, n)
	finalPrec := make([]int, n)
	for e := 0; e < n; e++ {
		alpha := int(math.Floor(math.Log2(b[e])))
		np := alpha + 1 + prec
		finalPrec[e] = 2*np - prec
		if base > 1 && 2*np >= rg.BitLen() {
			return nil, xerrors.Errorf("normalization scale %d^%d overflows ring 2^%d: %w",
				base, 2*np, rg.BitLen(), ErrConfiguration)
		}

		bEnc := rg.Encode(b[e], base, prec)
		c29 := goldschmidtConst(rg, base, np)
		one := rg.Scale(base, np)

		w0 := rg.Sub(c29, rg.Mul(2, bEnc))
		xw0 := rg.TruncateSigned(rg.Mul(bEnc, w0), base, np)
		eps0 := rg.Sub(one, xw0)
		eps1 := rg.TruncateSigned(rg.Mul(eps0, eps0), base, np)
		termMul := rg.TruncateSigned(rg.Mul(rg.Add(one, eps0), rg.Add(one, eps1)), base, np)
		bInv[e] = rg.TruncateSigned(rg.Mul(w0, termMul), base, np)
	}

	result, err := mulPublic(f.sess, a, bInv)
	if err != nil {
		return nil, err
	}
	result, err = f.truncateWith(result, base, finalPrec)
	if err != nil {
		return nil, err
	}
	result.SetConfig(base, prec)
	return result, nil
}

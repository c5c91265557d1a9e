package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// Multiply runs the verified multiplication engine: the semi-honest local
// cross-product with resharing, plus triple verification in malicious mode.
// Every call finishes with the companion fixed-point truncation that
// removes the doubled scale of the product.
func (f *Falcon) Multiply(x, y *SharedTensor) (*SharedTensor, error) {
	if f.sess.GetNParty() != NumParties {
		return nil, xerrors.Errorf("multiplication requires %d parties: %w", NumParties, ErrConfiguration)
	}
	if err := checkSameLayout(x, y); err != nil {
		return nil, err
	}

	var z *SharedTensor
	var err error
	switch f.sess.GetMode() {
	case SemiHonest:
		z, err = f.mulSemiHonest(x, y)
	case Malicious:
		z, err = f.mulMalicious(x, y)
	default:
		return nil, xerrors.Errorf("security mode %v: %w", f.sess.GetMode(), ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}

	if x.prec > 0 && x.base > 1 {
		return f.Truncate(z, []int{x.prec})
	}
	return z, nil
}

// mulSemiHonest computes the local cross-product sum of the same- and
// adjacent-index share terms, masks it with a pseudorandom zero sharing,
// and reshares the resulting 3-of-3 components into fresh replicated form.
func (f *Falcon) mulSemiHonest(x, y *SharedTensor) (*SharedTensor, error) {
	rg := x.rg
	n := x.Numel()

	zs, err := dispatch(f.sess, func(p *Party) (ring.Vec, error) {
		xs, ys := x.shares[p.pid], y.shares[p.pid]
		z := rg.MulElemVec(xs.s[0], ys.s[0])
		z = rg.AddVec(z, rg.MulElemVec(xs.s[1], ys.s[0]))
		z = rg.AddVec(z, rg.MulElemVec(xs.s[0], ys.s[1]))
		return rg.AddVec(z, p.przs(rg, n)), nil
	})
	if err != nil {
		return nil, err
	}

	return f.sess.distributeComponents([NumParties]ring.Vec{zs[0], zs[1], zs[2]}, rg, x.shape, x.base, x.prec)
}

// tripleRequest describes the primitives a masking step found missing.
type tripleRequest struct {
	op             string
	rg             ring.Ring
	xShape, yShape []int
}

// maskOutcome is the masking result: either the opened masked operands, or
// the primitives needed before a single retry.
type maskOutcome struct {
	eps, delta ring.Vec
	needs      *tripleRequest
}

// falconMask peeks the head triple (a, b, _) and opens eps = x - a and
// delta = y - b. The triple is left in the store for the verification that
// consumes it.
func (f *Falcon) falconMask(x, y *SharedTensor) (maskOutcome, error) {
	triple, err := f.sess.store.Get(OpMul, x.rg, x.shape, y.shape, false)
	if xerrors.Is(err, errEmptyStore) {
		return maskOutcome{needs: &tripleRequest{op: OpMul, rg: x.rg, xShape: x.shape, yShape: y.shape}}, nil
	}
	if err != nil {
		return maskOutcome{}, err
	}

	epsSh, err := subShared(f.sess, x, triple.A)
	if err != nil {
		return maskOutcome{}, err
	}
	deltaSh, err := subShared(f.sess, y, triple.B)
	if err != nil {
		return maskOutcome{}, err
	}
	eps, err := f.sess.Reconstruct(epsSh)
	if err != nil {
		return maskOutcome{}, err
	}
	delta, err := f.sess.Reconstruct(deltaSh)
	if err != nil {
		return maskOutcome{}, err
	}
	return maskOutcome{eps: eps, delta: delta}, nil
}

// mulMalicious runs the semi-honest product and then verifies it against a
// consumed Beaver triple. A nonzero residual aborts the entire call; no
// partial result survives. A primitive shortage is recovered by exactly one
// batch regeneration followed by exactly one retry.
func (f *Falcon) mulMalicious(x, y *SharedTensor) (*SharedTensor, error) {
	z, err := f.mulSemiHonest(x, y)
	if err != nil {
		return nil, err
	}

	out, err := f.falconMask(x, y)
	if err != nil {
		return nil, err
	}
	if out.needs != nil {
		req := out.needs
		if err := f.sess.store.Generate(req.op, req.rg, req.xShape, req.yShape, f.sess.store.batchSize); err != nil {
			return nil, err
		}
		out, err = f.falconMask(x, y)
		if err != nil {
			return nil, err
		}
		if out.needs != nil {
			panic("mpc: crypto store still empty after batch regeneration")
		}
	}

	residual, err := f.tripleVerification(z, out.eps, out.delta, x, y)
	if err != nil {
		return nil, err
	}
	opened, err := f.sess.Reconstruct(residual)
	if err != nil {
		return nil, err
	}
	for i := range opened {
		if opened[i] != 0 {
			return nil, xerrors.Errorf("verification residual nonzero at element %d: %w", i, ErrMaliciousAbort)
		}
	}
	return z, nil
}

// tripleVerification consumes the triple (a, b, c) and returns shares of
// z - (c + delta*a + eps*b + eps*delta). The eps*delta cross-term is public
// and must enter the sharing exactly once: it folds into rank 0's first and
// rank 2's second share slot, the two replicas of component 0. Folding it
// at rank 1 instead would double-count it.
func (f *Falcon) tripleVerification(z *SharedTensor, eps, delta ring.Vec, x, y *SharedTensor) (*SharedTensor, error) {
	rg := z.rg
	triple, err := f.sess.store.Get(OpMul, x.rg, x.shape, y.shape, true)
	if err != nil {
		return nil, err
	}

	epsDelta := rg.MulElemVec(eps, delta)

	rst, err := dispatch(f.sess, func(p *Party) (*ReplicatedShare, error) {
		a, b, c := triple.A.shares[p.pid], triple.B.shares[p.pid], triple.C.shares[p.pid]
		rs := &ReplicatedShare{}
		for k := 0; k < 2; k++ {
			v := rg.AddVec(c.s[k], rg.MulElemVec(a.s[k], delta))
			rs.s[k] = rg.AddVec(v, rg.MulElemVec(b.s[k], eps))
		}
		switch p.pid {
		case pubHolderFirst:
			rs.s[0] = rg.AddVec(rs.s[0], epsDelta)
		case pubHolderSecond:
			rs.s[1] = rg.AddVec(rs.s[1], epsDelta)
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}

	rstTensor := newSharedTensor(rst, z.shape, rg, z.base, z.prec)
	return subShared(f.sess, z, rstTensor)
}

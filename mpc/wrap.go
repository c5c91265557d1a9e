package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// wrapPreprocess deals the correlated randomness the wrap protocol consumes:
// a uniform mask x over the working ring, shares of its bits over the
// comparison field, and a boolean sharing of the true wrap of x's
// components.
func (f *Falcon) wrapPreprocess(rg ring.Ring, shape []int) (x *SharedTensor, xBits []*SharedTensor, alpha *SharedTensor, err error) {
	rg2 := ring.Pow2(1)

	x, err = f.sess.PRSSShare(rg, shape)
	if err != nil {
		return nil, nil, nil, err
	}
	xBits, err = f.BitDecompose(x, ring.CompareField())
	if err != nil {
		return nil, nil, nil, err
	}

	xc, err := f.sess.openComponents(x)
	if err != nil {
		return nil, nil, nil, err
	}
	xWrap := rg.Wrap3Vec(xc[0], xc[1], xc[2])

	n := x.Numel()
	r1 := f.sess.dealer.RandVec(rg2, n)
	r2 := f.sess.dealer.RandVec(rg2, n)
	r3 := rg2.AddVec(rg2.AddVec(xWrap, r1), r2)
	alpha, err = f.sess.distributeComponents([NumParties]ring.Vec{r1, r2, r3}, rg2, shape, f.sess.base, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	return x, xBits, alpha, nil
}

// Wrap computes a boolean sharing of the carry of a's components: whether
// their integer sum overflows the ring. The input is masked by a fresh
// random sharing whose components may be opened; the mask's own wrap enters
// blinded through the preprocessed alpha.
//
//	wrap(a) = beta xor delta xor eta xor alpha
//
// with beta the componentwise carries of a + x, delta the public carry of
// the opened masked components, and eta the comparison of the mask's bits
// against the opened value plus one. The opened value r is uniform; the
// single representative r = -1, where r + 1 wraps to zero, makes eta
// compare against zero and the result is off by the mask's carry. That
// corner has probability 2^-k and is accepted.
func (f *Falcon) Wrap(a *SharedTensor) (*SharedTensor, error) {
	rg := a.rg
	if rg.IsPrime() {
		return nil, xerrors.Errorf("carry is defined over power-of-two rings: %w", ErrShape)
	}
	rg2 := ring.Pow2(1)

	x, xBits, alpha, err := f.wrapPreprocess(rg, a.shape)
	if err != nil {
		return nil, err
	}

	r, err := addShared(f.sess, a, x)
	if err != nil {
		return nil, err
	}
	rc, err := f.sess.openComponents(r)
	if err != nil {
		return nil, err
	}

	betaShares, err := dispatch(f.sess, func(p *Party) (*ReplicatedShare, error) {
		as, xs := a.shares[p.pid], x.shares[p.pid]
		return &ReplicatedShare{s: [2]ring.Vec{
			rg.Wrap2Vec(as.s[0], xs.s[0]),
			rg.Wrap2Vec(as.s[1], xs.s[1]),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	beta := newSharedTensor(betaShares, a.shape, rg2, a.base, 0)

	delta := rg.Wrap3Vec(rc[0], rc[1], rc[2])
	rPublic := rg.AddVec(rg.AddVec(rc[0], rc[1]), rc[2])

	eta, err := f.PrivateCompare(xBits, rg.AddScalarVec(rPublic, 1))
	if err != nil {
		return nil, err
	}

	out, err := xorShared(f.sess, beta, eta)
	if err != nil {
		return nil, err
	}
	out, err = xorShared(f.sess, out, alpha)
	if err != nil {
		return nil, err
	}
	return addPublic(f.sess, out, delta)
}

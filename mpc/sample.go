package mpc

import (
	"github.com/hhcho/falcon/ring"
)

// RandomPrimeGroup samples a fresh sharing of one uniform element of the
// multiplicative group of the comparison field, broadcast across every
// element of shape. The candidate is drawn by PRSS over the field and
// accepted only when its opened Fermat power is one, which rejects zero
// without revealing the survivor.
func (f *Falcon) RandomPrimeGroup(shape []int) (*SharedTensor, error) {
	rg := ring.CompareField()
	for {
		cand, err := f.sess.PRSSBroadcast(rg, shape)
		if err != nil {
			return nil, err
		}
		pow, err := f.sharedExp(cand, rg.Modulus()-1)
		if err != nil {
			return nil, err
		}
		opened, err := f.sess.Reconstruct(pow)
		if err != nil {
			return nil, err
		}
		ok := true
		for _, v := range opened {
			if v != 1 {
				ok = false
				break
			}
		}
		if ok {
			return cand, nil
		}
	}
}

// sharedExp raises a shared tensor to a public exponent by square and
// multiply.
func (f *Falcon) sharedExp(t *SharedTensor, e uint64) (*SharedTensor, error) {
	acc, err := f.sess.sharePublic(ring.Const(t.Numel(), 1), t.rg, t.shape, t.base, 0)
	if err != nil {
		return nil, err
	}
	sq := t
	for ; e > 0; e >>= 1 {
		if e&1 == 1 {
			acc, err = f.Multiply(acc, sq)
			if err != nil {
				return nil, err
			}
		}
		if e > 1 {
			sq, err = f.Multiply(sq, sq)
			if err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}

package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhcho/falcon/ring"
)

func TestTruncate(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()

	vals := ring.Vec{5 << 16, rg.FromInt(-3 << 16), 1 << 16, rg.FromInt(-1)}
	x, err := sess.Distribute(vals, rg, []int{4}, 2, 16)
	require.NoError(t, err)

	z, err := falcon.Truncate(x, []int{16})
	require.NoError(t, err)
	got, err := sess.Reconstruct(z)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{5, rg.FromInt(-3), 1, rg.FromInt(-1)}, got)
}

func TestTruncatePerElement(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()

	x, err := sess.Distribute(ring.Vec{1 << 10, 1 << 10}, rg, []int{2}, 2, 0)
	require.NoError(t, err)

	z, err := falcon.Truncate(x, []int{2, 4})
	require.NoError(t, err)
	got, err := sess.Reconstruct(z)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{1 << 8, 1 << 6}, got)

	_, err = falcon.Truncate(x, []int{1, 2, 3})
	require.ErrorIs(t, err, ErrShape)
}

func TestBitDecompose(t *testing.T) {
	sess, falcon := newTestSession(t, 8, "semi-honest")
	rg := sess.GetRing()

	vals := ring.Vec{0b10110101, 0, 255}
	x, err := sess.ShareRaw(vals, rg, []int{3})
	require.NoError(t, err)

	bits, err := falcon.BitDecompose(x, ring.CompareField())
	require.NoError(t, err)
	require.Len(t, bits, 8)

	for i, b := range bits {
		got, err := sess.Reconstruct(b)
		require.NoError(t, err)
		for e := range vals {
			require.Equal(t, rg.Bit(vals[e], i), got[e], "bit %d of element %d", i, e)
		}
	}
}

func TestBitInjection(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()
	rg2 := ring.Pow2(1)

	vals := ring.Vec{1, 0, 1, 1, 0}
	b, err := sess.ShareRaw(vals, rg2, []int{5})
	require.NoError(t, err)

	lifted, err := falcon.BitInjection(b, rg)
	require.NoError(t, err)
	require.Equal(t, rg, lifted.Ring())

	got, err := sess.Reconstruct(lifted)
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

func TestBitInjectionRejectsArithmeticShares(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")
	x, err := sess.ShareRaw(ring.Vec{1}, sess.GetRing(), []int{1})
	require.NoError(t, err)
	_, err = falcon.BitInjection(x, ring.CompareField())
	require.ErrorIs(t, err, ErrShape)
}

func TestBitInjectionIntoPrimeField(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "malicious")
	rg2 := ring.Pow2(1)

	vals := ring.Vec{1, 1, 0}
	b, err := sess.ShareRaw(vals, rg2, []int{3})
	require.NoError(t, err)

	lifted, err := falcon.BitInjection(b, ring.CompareField())
	require.NoError(t, err)
	got, err := sess.Reconstruct(lifted)
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

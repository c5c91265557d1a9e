package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhcho/falcon/ring"
)

func TestDReLU(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")

	a, err := sess.ShareFloats([]float64{-5, 5, 0}, []int{3})
	require.NoError(t, err)

	d, err := falcon.DReLU(a)
	require.NoError(t, err)
	got, err := sess.Reconstruct(d)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{0, 1, 1}, got)
}

func TestDReLUExtremes(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()

	// most negative, most positive, -1, 1
	vals := ring.Vec{1 << 31, 1<<31 - 1, rg.FromInt(-1), 1}
	a, err := sess.ShareRaw(vals, rg, []int{4})
	require.NoError(t, err)

	d, err := falcon.DReLU(a)
	require.NoError(t, err)
	got, err := sess.Reconstruct(d)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{0, 1, 0, 1}, got)
}

func TestDReLUNarrowRing(t *testing.T) {
	// the sign bit follows the tensor's own ring, not the session's
	sess, falcon := newTestSession(t, 32, "semi-honest")
	rg := ring.Pow2(16)

	vals := ring.Vec{1 << 15, 5, 0, 1<<15 - 1, rg.FromInt(-200)}
	a, err := sess.ShareRaw(vals, rg, []int{5})
	require.NoError(t, err)

	d, err := falcon.DReLU(a)
	require.NoError(t, err)
	got, err := sess.Reconstruct(d)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{0, 1, 1, 1, 0}, got)
}

func TestDReLURejectsPrimeField(t *testing.T) {
	sess, falcon := newTestSession(t, 32, "semi-honest")

	a, err := sess.ShareRaw(ring.Vec{3}, ring.CompareField(), []int{1})
	require.NoError(t, err)

	_, err = falcon.DReLU(a)
	require.ErrorIs(t, err, ErrShape)
}

func TestReLU(t *testing.T) {
	for _, security := range []string{"semi-honest", "malicious"} {
		t.Run(security, func(t *testing.T) {
			sess, falcon := newTestSession(t, 32, security)

			vals := []float64{-3.5, 2.25, 0, -0.0625, 100}
			a, err := sess.ShareFloats(vals, []int{5})
			require.NoError(t, err)

			r, err := falcon.ReLU(a)
			require.NoError(t, err)
			got, err := sess.RevealFloats(r)
			require.NoError(t, err)

			for i, v := range vals {
				want := v
				if v < 0 {
					want = 0
				}
				require.InDelta(t, want, got[i], 1.0/(1<<14), "element %d", i)
			}
		})
	}
}

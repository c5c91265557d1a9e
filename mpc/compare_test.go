package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhcho/falcon/ring"
)

func decomposeForCompare(t *testing.T, sess *Session, falcon *Falcon, vals ring.Vec) []*SharedTensor {
	t.Helper()
	x, err := sess.ShareRaw(vals, sess.GetRing(), []int{len(vals)})
	require.NoError(t, err)
	bits, err := falcon.BitDecompose(x, ring.CompareField())
	require.NoError(t, err)
	return bits
}

func TestPrivateCompare(t *testing.T) {
	sess, falcon := newTestSession(t, 8, "semi-honest")

	cases := []struct {
		name string
		x, r uint64
	}{
		{"greater", 200, 100},
		{"less", 100, 200},
		{"equal", 77, 77},
		{"x zero", 0, 1},
		{"both zero", 0, 0},
		{"r zero", 5, 0},
		{"r max", 100, 255},
		{"x max r max", 255, 255},
		{"adjacent up", 129, 128},
		{"adjacent down", 128, 129},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bits := decomposeForCompare(t, sess, falcon, ring.Vec{tc.x})
			out, err := falcon.PrivateCompare(bits, ring.Vec{tc.r})
			require.NoError(t, err)

			got, err := sess.Reconstruct(out)
			require.NoError(t, err)
			want := uint64(0)
			if tc.x >= tc.r {
				want = 1
			}
			require.Equal(t, want, got[0], "x=%d r=%d", tc.x, tc.r)
		})
	}
}

func TestPrivateCompareVector(t *testing.T) {
	sess, falcon := newTestSession(t, 8, "semi-honest")

	xs := ring.Vec{0, 13, 200, 255, 128, 7}
	rs := ring.Vec{0, 14, 100, 255, 127, 7}
	bits := decomposeForCompare(t, sess, falcon, xs)

	out, err := falcon.PrivateCompare(bits, rs)
	require.NoError(t, err)
	got, err := sess.Reconstruct(out)
	require.NoError(t, err)

	for i := range xs {
		want := uint64(0)
		if xs[i] >= rs[i] {
			want = 1
		}
		require.Equal(t, want, got[i], "x=%d r=%d", xs[i], rs[i])
	}
}

func TestPrivateCompareMalicious(t *testing.T) {
	sess, falcon := newTestSession(t, 8, "malicious")

	bits := decomposeForCompare(t, sess, falcon, ring.Vec{42, 42})
	out, err := falcon.PrivateCompare(bits, ring.Vec{43, 41})
	require.NoError(t, err)
	got, err := sess.Reconstruct(out)
	require.NoError(t, err)
	require.Equal(t, ring.Vec{0, 1}, got)
}

func TestPrivateCompareValidation(t *testing.T) {
	sess, falcon := newTestSession(t, 8, "semi-honest")

	_, err := falcon.PrivateCompare(nil, ring.Vec{1})
	require.ErrorIs(t, err, ErrShape)

	// bits must live in the comparison field
	x, err := sess.ShareRaw(ring.Vec{1}, sess.GetRing(), []int{1})
	require.NoError(t, err)
	_, err = falcon.PrivateCompare([]*SharedTensor{x}, ring.Vec{1})
	require.ErrorIs(t, err, ErrShape)
}

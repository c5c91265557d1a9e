package mpc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestBoundingPow(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")

	vals := []float64{1, 2.5, 4, 0.75, 100}
	b, err := sess.ShareFloats(vals, []int{5})
	require.NoError(t, err)

	alpha, err := falcon.BoundingPow(b)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, -1, 6}, alpha)
}

func TestDivide(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")

	as := []float64{7.5, 1, -6, 10, 3}
	bs := []float64{2.5, 3, 1.5, 7, 1}
	a, err := sess.ShareFloats(as, []int{5})
	require.NoError(t, err)
	b, err := sess.ShareFloats(bs, []int{5})
	require.NoError(t, err)

	z, err := falcon.Divide(a, b)
	require.NoError(t, err)
	got, err := sess.RevealFloats(z)
	require.NoError(t, err)

	want := make([]float64, len(as))
	for i := range as {
		want[i] = as[i] / bs[i]
	}
	relErr := make([]float64, len(as))
	floats.SubTo(relErr, got, want)
	for i := range relErr {
		relErr[i] = math.Abs(relErr[i] / want[i])
		require.Less(t, relErr[i], math.Pow(2, -10), "a=%v b=%v got=%v", as[i], bs[i], got[i])
	}

	// transient configs are restored
	base, prec := a.Config()
	require.Equal(t, 2, base)
	require.Equal(t, 16, prec)
	base, prec = b.Config()
	require.Equal(t, 2, base)
	require.Equal(t, 16, prec)
}

func TestDividePowerOfTwoExact(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")

	a, err := sess.ShareFloats([]float64{12, -20, 5}, []int{3})
	require.NoError(t, err)
	b, err := sess.ShareFloats([]float64{4, 2, 8}, []int{3})
	require.NoError(t, err)

	z, err := falcon.Divide(a, b)
	require.NoError(t, err)
	got, err := sess.RevealFloats(z)
	require.NoError(t, err)

	want := []float64{3, -10, 0.625}
	for i := range want {
		require.InDelta(t, want[i], got[i], 1.0/(1<<12), "element %d", i)
	}
}

func TestDivideMalicious(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "malicious")

	a, err := sess.ShareFloats([]float64{9}, []int{1})
	require.NoError(t, err)
	b, err := sess.ShareFloats([]float64{3}, []int{1})
	require.NoError(t, err)

	z, err := falcon.Divide(a, b)
	require.NoError(t, err)
	got, err := sess.RevealFloats(z)
	require.NoError(t, err)
	require.InDelta(t, 3.0, got[0], 1.0/(1<<10))
}

func TestDivideRestoresConfigOnError(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")

	a, err := sess.ShareFloats([]float64{1, 2}, []int{2})
	require.NoError(t, err)
	b, err := sess.ShareFloats([]float64{3}, []int{1})
	require.NoError(t, err)

	_, err = falcon.Divide(a, b)
	require.ErrorIs(t, err, ErrShape)

	base, prec := a.Config()
	require.Equal(t, 2, base)
	require.Equal(t, 16, prec)
}

func TestDividePublic(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")

	as := []float64{10, -7.5, 1}
	bs := []float64{4, 2.5, 3}
	a, err := sess.ShareFloats(as, []int{3})
	require.NoError(t, err)

	z, err := falcon.DividePublic(a, bs)
	require.NoError(t, err)
	got, err := sess.RevealFloats(z)
	require.NoError(t, err)

	for i := range as {
		want := as[i] / bs[i]
		require.InDelta(t, want, got[i], math.Abs(want)*math.Pow(2, -10)+1.0/(1<<12), "element %d", i)
	}

	base, prec := a.Config()
	require.Equal(t, 2, base)
	require.Equal(t, 16, prec)

	_, err = falcon.DividePublic(a, []float64{1, -2, 3})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestDivideRejectsNarrowNormalization(t *testing.T) {
	// the divisor's normalization scale squared has to fit the ring
	sess, falcon := newTestSession(t, 32, "semi-honest")

	a, err := sess.ShareFloats([]float64{512}, []int{1})
	require.NoError(t, err)
	b, err := sess.ShareFloats([]float64{300}, []int{1})
	require.NoError(t, err)

	_, err = falcon.Divide(a, b)
	require.ErrorIs(t, err, ErrConfiguration)

	base, prec := a.Config()
	require.Equal(t, 2, base)
	require.Equal(t, 8, prec)

	_, err = falcon.DividePublic(a, []float64{300})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestDividePublicShapeMismatch(t *testing.T) {
	sess, falcon := newTestSession(t, 64, "semi-honest")
	a, err := sess.ShareFloats([]float64{1}, []int{1})
	require.NoError(t, err)
	_, err = falcon.DividePublic(a, []float64{1, 2})
	require.ErrorIs(t, err, ErrShape)
}

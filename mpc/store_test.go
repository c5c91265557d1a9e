package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hhcho/falcon/ring"
	"golang.org/x/xerrors"
)

func TestStoreGenerateAndGet(t *testing.T) {
	sess, _ := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()
	store := sess.GetStore()
	shape := []int{3}

	require.NoError(t, store.Generate(OpMul, rg, shape, shape, 4))
	require.Equal(t, 4, store.Count(OpMul, rg, shape, shape))

	// peeking leaves the triple in place
	peeked, err := store.Get(OpMul, rg, shape, shape, false)
	require.NoError(t, err)
	require.Equal(t, 4, store.Count(OpMul, rg, shape, shape))

	// consuming removes the same head triple
	consumed, err := store.Get(OpMul, rg, shape, shape, true)
	require.NoError(t, err)
	require.Equal(t, 3, store.Count(OpMul, rg, shape, shape))

	pv, err := sess.Reconstruct(peeked.C)
	require.NoError(t, err)
	cv, err := sess.Reconstruct(consumed.C)
	require.NoError(t, err)
	require.Equal(t, pv, cv)
}

func TestStoreTriplesAreValid(t *testing.T) {
	sess, _ := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()
	store := sess.GetStore()
	shape := []int{5}

	require.NoError(t, store.Generate(OpMul, rg, shape, shape, 2))
	for i := 0; i < 2; i++ {
		triple, err := store.Get(OpMul, rg, shape, shape, true)
		require.NoError(t, err)
		a, err := sess.Reconstruct(triple.A)
		require.NoError(t, err)
		b, err := sess.Reconstruct(triple.B)
		require.NoError(t, err)
		c, err := sess.Reconstruct(triple.C)
		require.NoError(t, err)
		require.Equal(t, rg.MulElemVec(a, b), c)
	}
}

func TestStoreShortageSignal(t *testing.T) {
	sess, _ := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()

	_, err := sess.GetStore().Get(OpMul, rg, []int{1}, []int{1}, true)
	require.True(t, xerrors.Is(err, errEmptyStore))
}

func TestStoreKeysByShapeAndRing(t *testing.T) {
	sess, _ := newTestSession(t, 32, "semi-honest")
	rg := sess.GetRing()
	store := sess.GetStore()

	require.NoError(t, store.Generate(OpMul, rg, []int{2}, []int{2}, 1))
	require.Equal(t, 0, store.Count(OpMul, rg, []int{3}, []int{3}))
	require.Equal(t, 0, store.Count(OpMul, ring.CompareField(), []int{2}, []int{2}))
	require.Equal(t, 1, store.Count(OpMul, rg, []int{2}, []int{2}))
}

func TestProtocolEquality(t *testing.T) {
	_, semiA := newTestSession(t, 32, "semi-honest")
	_, semiB := newTestSession(t, 32, "semi-honest")
	_, mal := newTestSession(t, 32, "malicious")

	require.True(t, semiA.Equal(semiB))
	require.False(t, semiA.Equal(mal))
	require.False(t, semiA.Equal(nil))
	require.Equal(t, KindFalcon, semiA.Kind())
}

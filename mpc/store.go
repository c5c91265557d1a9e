package mpc

import (
	"fmt"
	"sync"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// OpMul is the only multiplication operator of the closed protocol set;
// triples are keyed by operator so further elementwise operators can join
// without changing the store.
const OpMul = "mul"

// BeaverTriple is correlated randomness (a, b, c = a*b) shared over a ring.
// A triple is peeked non-destructively for masking and consumed by the
// verification that follows.
type BeaverTriple struct {
	A, B, C *SharedTensor
}

// CryptoStore is the per-session pool of Beaver triples, keyed by operator
// and operand shapes. Exhaustion is reported with an internal signal and
// recovered by exactly one on-demand batch regeneration.
type CryptoStore struct {
	mu        sync.Mutex
	sess      *Session
	triples   map[string][]BeaverTriple
	batchSize int
}

func NewCryptoStore(sess *Session, batchSize int) *CryptoStore {
	return &CryptoStore{
		sess:      sess,
		triples:   make(map[string][]BeaverTriple),
		batchSize: batchSize,
	}
}

func tripleKey(op string, rg ring.Ring, xShape, yShape []int) string {
	return fmt.Sprintf("beaver_%s|%v|%v|%d", op, xShape, yShape, rg.Modulus())
}

// Get returns the next triple for the given operator and shapes. With
// remove unset the triple stays at the head of the queue for the consumer
// that follows; with remove set it is popped.
func (cs *CryptoStore) Get(op string, rg ring.Ring, xShape, yShape []int, remove bool) (BeaverTriple, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	key := tripleKey(op, rg, xShape, yShape)
	queue := cs.triples[key]
	if len(queue) == 0 {
		return BeaverTriple{}, xerrors.Errorf("no triple for %s: %w", key, errEmptyStore)
	}
	head := queue[0]
	if remove {
		cs.triples[key] = queue[1:]
	}
	return head, nil
}

// Generate deals count fresh triples for the given operator and shapes.
func (cs *CryptoStore) Generate(op string, rg ring.Ring, xShape, yShape []int, count int) error {
	if op != OpMul {
		return xerrors.Errorf("operator %q: %w", op, ErrConfiguration)
	}
	if !sameShape(xShape, yShape) {
		return xerrors.Errorf("triple shapes %v and %v: %w", xShape, yShape, ErrShape)
	}
	n, err := numel(xShape)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	log.LLvl1("crypto store: generating", count, "beaver triples for", tripleKey(op, rg, xShape, yShape))
	key := tripleKey(op, rg, xShape, yShape)
	for i := 0; i < count; i++ {
		a := cs.sess.dealer.RandVec(rg, n)
		b := cs.sess.dealer.RandVec(rg, n)
		c := rg.MulElemVec(a, b)

		aSh, err := cs.sess.Distribute(a, rg, xShape, cs.sess.base, 0)
		if err != nil {
			return err
		}
		bSh, err := cs.sess.Distribute(b, rg, yShape, cs.sess.base, 0)
		if err != nil {
			return err
		}
		cSh, err := cs.sess.Distribute(c, rg, xShape, cs.sess.base, 0)
		if err != nil {
			return err
		}
		cs.triples[key] = append(cs.triples[key], BeaverTriple{A: aSh, B: bSh, C: cSh})
	}
	return nil
}

// Count reports how many triples are pooled for the given key.
func (cs *CryptoStore) Count(op string, rg ring.Ring, xShape, yShape []int) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.triples[tripleKey(op, rg, xShape, yShape)])
}

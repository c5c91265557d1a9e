package mpc

import (
	"github.com/BurntSushi/toml"
	"github.com/rs/xid"
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// SecurityMode selects the adversary model a protocol instance defends
// against. It is a field of the protocol, not a subtype; no code path may
// silently downgrade Malicious to SemiHonest.
type SecurityMode int

const (
	SemiHonest SecurityMode = iota
	Malicious
)

func (m SecurityMode) String() string {
	switch m {
	case SemiHonest:
		return "semi-honest"
	case Malicious:
		return "malicious"
	}
	return "unknown"
}

func ParseSecurityMode(s string) (SecurityMode, error) {
	switch s {
	case "semi-honest":
		return SemiHonest, nil
	case "malicious":
		return Malicious, nil
	}
	return 0, xerrors.Errorf("security type %q: %w", s, ErrConfiguration)
}

// Parameters are the session knobs, loadable from a TOML file.
type Parameters struct {
	NumParties      int    `toml:"num_parties"`
	RingBits        int    `toml:"ring_bits"`
	Base            int    `toml:"base"`
	FracBits        int    `toml:"frac_bits"`
	SecurityType    string `toml:"security_type"`
	SharedKeysPath  string `toml:"shared_keys_path"`
	TripleBatchSize int    `toml:"triple_batch_size"`
}

func DefaultParameters() Parameters {
	return Parameters{
		NumParties:      NumParties,
		RingBits:        64,
		Base:            2,
		FracBits:        16,
		SecurityType:    "semi-honest",
		TripleBatchSize: 16,
	}
}

func LoadParameters(path string) (Parameters, error) {
	params := DefaultParameters()
	if _, err := toml.DecodeFile(path, &params); err != nil {
		return params, xerrors.Errorf("loading parameters: %w", err)
	}
	return params, nil
}

// Session carries the party membership, the working ring, the fixed-point
// configuration, the security mode, and the crypto primitive store shared
// by every protocol call.
type Session struct {
	ID string

	parties  []*Party
	rg       ring.Ring
	ringBits int
	base     int
	fracBits int
	mode     SecurityMode

	store  *CryptoStore
	dealer *Random
}

func NewSession(params Parameters) (*Session, error) {
	if params.NumParties == 0 {
		params.NumParties = NumParties
	}
	if params.NumParties < 2 {
		return nil, xerrors.Errorf("%d parties: %w", params.NumParties, ErrConfiguration)
	}
	if params.RingBits < 2 || params.RingBits > 64 {
		return nil, xerrors.Errorf("ring width %d: %w", params.RingBits, ErrConfiguration)
	}
	if params.FracBits < 0 {
		return nil, xerrors.Errorf("fractional precision %d: %w", params.FracBits, ErrConfiguration)
	}
	// A fixed-point product carries scale base^(2*fracBits) before
	// truncation, so it must fit the ring alongside the integer part.
	if params.Base > 1 && 2*params.FracBits >= params.RingBits {
		return nil, xerrors.Errorf("precision %d products overflow ring 2^%d: %w",
			params.FracBits, params.RingBits, ErrConfiguration)
	}
	mode, err := ParseSecurityMode(params.SecurityType)
	if err != nil {
		return nil, err
	}
	if params.TripleBatchSize < 1 {
		params.TripleBatchSize = DefaultParameters().TripleBatchSize
	}

	rands := InitializePRGs(params.NumParties, params.SharedKeysPath)
	parties := make([]*Party, params.NumParties)
	for pid := range parties {
		parties[pid] = &Party{pid: pid, Rand: rands[pid]}
	}

	dealer := NewDealerRandom()
	sess := &Session{
		ID:       xid.New().String(),
		parties:  parties,
		rg:       ring.Pow2(params.RingBits),
		ringBits: params.RingBits,
		base:     params.Base,
		fracBits: params.FracBits,
		mode:     mode,
		dealer:   dealer,
	}
	sess.store = NewCryptoStore(sess, params.TripleBatchSize)
	return sess, nil
}

func (s *Session) GetNParty() int         { return len(s.parties) }
func (s *Session) GetRing() ring.Ring     { return s.rg }
func (s *Session) GetRingBits() int       { return s.ringBits }
func (s *Session) GetBase() int           { return s.base }
func (s *Session) GetFracBits() int       { return s.fracBits }
func (s *Session) GetMode() SecurityMode  { return s.mode }
func (s *Session) GetStore() *CryptoStore { return s.store }

// przs returns this party's share of a pseudorandom zero sharing: the three
// per-party outputs sum to zero without any communication.
func (p *Party) przs(rg ring.Ring, n int) ring.Vec {
	p.Rand.SwitchPRG(next(p.pid))
	a := p.Rand.RandVec(rg, n)
	p.Rand.SwitchPRG(prev(p.pid))
	b := p.Rand.RandVec(rg, n)
	p.Rand.RestorePRG()
	return rg.SubVec(a, b)
}

// prssPair returns this party's two components of a replicated pseudorandom
// sharing. Component j is drawn from the seed both of its holders share, so
// replicas agree without communication.
func (p *Party) prssPair(rg ring.Ring, n int) (ring.Vec, ring.Vec) {
	p.Rand.SwitchPRG(prev(p.pid))
	own := p.Rand.RandVec(rg, n)
	p.Rand.SwitchPRG(next(p.pid))
	nxt := p.Rand.RandVec(rg, n)
	p.Rand.RestorePRG()
	return own, nxt
}

// PRSSShare draws a fresh replicated pseudorandom sharing of a uniform
// value over rg.
func (s *Session) PRSSShare(rg ring.Ring, shape []int) (*SharedTensor, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		own, nxt := p.prssPair(rg, n)
		return &ReplicatedShare{s: [2]ring.Vec{own, nxt}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, shape, rg, s.base, 0), nil
}

// PRSSBroadcast draws a single replicated pseudorandom element and repeats
// it across the target shape.
func (s *Session) PRSSBroadcast(rg ring.Ring, shape []int) (*SharedTensor, error) {
	n, err := numel(shape)
	if err != nil {
		return nil, err
	}
	shares, err := dispatch(s, func(p *Party) (*ReplicatedShare, error) {
		own, nxt := p.prssPair(rg, 1)
		return &ReplicatedShare{s: [2]ring.Vec{ring.Const(n, own[0]), ring.Const(n, nxt[0])}}, nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedTensor(shares, shape, rg, s.base, 0), nil
}

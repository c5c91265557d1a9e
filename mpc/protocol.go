package mpc

import (
	"golang.org/x/xerrors"

	"github.com/hhcho/falcon/ring"
)

// Kind enumerates the protocols this package implements. The set is closed;
// selection happens by constructing the protocol, not by registration.
type Kind int

const (
	KindFalcon Kind = iota
)

// Protocol is the capability surface shared by every protocol kind. All
// methods operate on and return secret-shared tensors, or fail with an
// error from the package taxonomy.
type Protocol interface {
	Multiply(x, y *SharedTensor) (*SharedTensor, error)
	Select(x, y, b *SharedTensor) (*SharedTensor, error)
	PrivateCompare(xBits []*SharedTensor, r ring.Vec) (*SharedTensor, error)
	Wrap(a *SharedTensor) (*SharedTensor, error)
	DReLU(a *SharedTensor) (*SharedTensor, error)
	ReLU(a *SharedTensor) (*SharedTensor, error)
	Divide(a, b *SharedTensor) (*SharedTensor, error)
}

// Falcon is the three-party honest-majority protocol. The security mode is
// carried by the session and honored on every path; malicious mode never
// downgrades to semi-honest behavior.
type Falcon struct {
	sess *Session
}

var _ Protocol = (*Falcon)(nil)

func NewFalcon(sess *Session) (*Falcon, error) {
	if sess.GetNParty() != NumParties {
		return nil, xerrors.Errorf("falcon requires %d parties, got %d: %w",
			NumParties, sess.GetNParty(), ErrConfiguration)
	}
	switch sess.GetMode() {
	case SemiHonest, Malicious:
	default:
		return nil, xerrors.Errorf("security mode %v: %w", sess.GetMode(), ErrConfiguration)
	}
	return &Falcon{sess: sess}, nil
}

func (f *Falcon) Session() *Session  { return f.sess }
func (f *Falcon) Mode() SecurityMode { return f.sess.GetMode() }
func (f *Falcon) Kind() Kind         { return KindFalcon }

// Equal reports whether two protocol instances are interchangeable: same
// kind and same security mode.
func (f *Falcon) Equal(other *Falcon) bool {
	return other != nil && f.Mode() == other.Mode()
}

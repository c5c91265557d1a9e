// Package ring provides the modular arithmetic backing Falcon's secret
// shares: power-of-two rings Z_{2^k}, including the boolean ring Z_2, and
// the small prime field used for bitwise comparison. A Ring is chosen once
// when a tensor is created and threaded through every operation on it.
package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/hhcho/frand"
)

// CompareFieldPrime is the modulus of the field holding bit shares during
// private comparison. It must exceed the ring bit width plus two so that
// the comparison terms c_i never wrap; 67 covers rings up to 2^64.
const CompareFieldPrime uint64 = 67

// Ring is a fixed modular domain. The zero value is not valid; construct
// with Pow2 or Prime.
type Ring struct {
	modulus uint64 // 0 encodes 2^64
	mask    uint64 // modulus-1 for power-of-two rings
	nbits   int    // bit length of the modulus
	prime   bool
}

// Pow2 returns the ring Z_{2^k} for 1 <= k <= 64.
func Pow2(k int) Ring {
	if k < 1 || k > 64 {
		panic(fmt.Sprintf("ring: unsupported power-of-two width %d", k))
	}
	var mod, mask uint64
	if k == 64 {
		mod, mask = 0, ^uint64(0)
	} else {
		mod = uint64(1) << k
		mask = mod - 1
	}
	return Ring{modulus: mod, mask: mask, nbits: k}
}

// Prime returns the field Z_p. The caller is responsible for p being prime.
func Prime(p uint64) Ring {
	if p < 2 {
		panic(fmt.Sprintf("ring: invalid prime modulus %d", p))
	}
	return Ring{modulus: p, nbits: bits.Len64(p - 1), prime: true}
}

// CompareField is the prime field used by the private comparison protocol.
func CompareField() Ring { return Prime(CompareFieldPrime) }

func (r Ring) IsPrime() bool { return r.prime }
func (r Ring) BitLen() int   { return r.nbits }

// Modulus returns the ring size; 0 stands for 2^64.
func (r Ring) Modulus() uint64 { return r.modulus }

func (r Ring) BigModulus() *big.Int {
	if r.modulus == 0 {
		return new(big.Int).Lsh(big.NewInt(1), 64)
	}
	return new(big.Int).SetUint64(r.modulus)
}

func (r Ring) pow2() bool { return !r.prime }

func (r Ring) reduce(x uint64) uint64 {
	if r.pow2() {
		return x & r.mask
	}
	return x % r.modulus
}

func (r Ring) Add(a, b uint64) uint64 {
	if r.pow2() {
		return (a + b) & r.mask
	}
	return (a + b) % r.modulus
}

func (r Ring) Sub(a, b uint64) uint64 {
	if r.pow2() {
		return (a - b) & r.mask
	}
	return (a + r.modulus - b) % r.modulus
}

func (r Ring) Neg(a uint64) uint64 { return r.Sub(0, a) }

func (r Ring) Mul(a, b uint64) uint64 {
	if r.modulus == 0 {
		return a * b
	}
	hi, lo := bits.Mul64(a, b)
	if hi == 0 && lo < r.modulus {
		if r.pow2() {
			return lo & r.mask
		}
		return lo
	}
	if r.pow2() {
		return lo & r.mask
	}
	return bits.Rem64(hi, lo, r.modulus)
}

// Exp raises a to a public exponent.
func (r Ring) Exp(a uint64, e uint64) uint64 {
	out := r.reduce(1)
	base := r.reduce(a)
	for e > 0 {
		if e&1 == 1 {
			out = r.Mul(out, base)
		}
		base = r.Mul(base, base)
		e >>= 1
	}
	return out
}

// Inv returns the multiplicative inverse in a prime field (Fermat).
func (r Ring) Inv(a uint64) uint64 {
	if !r.prime {
		panic("ring: Inv requires a prime modulus")
	}
	if a%r.modulus == 0 {
		panic("ring: zero is not invertible")
	}
	return r.Exp(a, r.modulus-2)
}

func (r Ring) FromUint64(v uint64) uint64 { return r.reduce(v) }

func (r Ring) FromInt(v int64) uint64 {
	if v >= 0 {
		return r.reduce(uint64(v))
	}
	return r.Neg(r.reduce(uint64(-v)))
}

// Signed maps a ring element to its signed representative in
// [-2^(k-1), 2^(k-1)). Power-of-two rings only.
func (r Ring) Signed(x uint64) int64 {
	if r.prime {
		panic("ring: Signed requires a power-of-two modulus")
	}
	if r.nbits == 64 {
		return int64(x)
	}
	half := uint64(1) << (r.nbits - 1)
	if x >= half {
		return int64(x) - int64(r.modulus)
	}
	return int64(x)
}

// Bit returns bit i of x.
func (r Ring) Bit(x uint64, i int) uint64 { return (x >> uint(i)) & 1 }

// Shl shifts left within the ring.
func (r Ring) Shl(x uint64, s int) uint64 {
	if s >= 64 {
		return 0
	}
	return r.reduce(x << uint(s))
}

// Wrap2 reports the carry-out of a+b over the ring: a > max - b.
func (r Ring) Wrap2(a, b uint64) uint64 {
	if r.prime {
		panic("ring: Wrap2 requires a power-of-two modulus")
	}
	if a > r.mask-b {
		return 1
	}
	return 0
}

// Wrap3 reports the mod-2 carry count of a+b+c over the ring,
// wrap2(a,b) XOR wrap2(a+b,c).
func (r Ring) Wrap3(a, b, c uint64) uint64 {
	return r.Wrap2(a, b) ^ r.Wrap2(r.Add(a, b), c)
}

// RandElem samples a uniform ring element from the given PRG.
func (r Ring) RandElem(prg *frand.RNG) uint64 {
	var buf [8]byte
	if r.pow2() {
		prg.Read(buf[:])
		return binaryUint64(buf[:]) & r.mask
	}
	// Rejection sampling over the bit length of p keeps the draw uniform.
	top := uint64(1)<<uint(r.nbits) - 1
	for {
		prg.Read(buf[:])
		v := binaryUint64(buf[:]) & top
		if v < r.modulus {
			return v
		}
	}
}

func binaryUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}

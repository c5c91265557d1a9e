package ring

import (
	"math"
	"math/big"

	"github.com/hhcho/frand"
)

// Vec is a flat vector of ring elements. All elements are assumed reduced
// with respect to the Ring the vector was created under.
type Vec []uint64

func Zeros(n int) Vec { return make(Vec, n) }

func Const(n int, v uint64) Vec {
	out := make(Vec, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (v Vec) Copy() Vec {
	out := make(Vec, len(v))
	copy(out, v)
	return out
}

func (r Ring) AddVec(a, b Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Add(a[i], b[i])
	}
	return out
}

func (r Ring) SubVec(a, b Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Sub(a[i], b[i])
	}
	return out
}

func (r Ring) NegVec(a Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Neg(a[i])
	}
	return out
}

func (r Ring) MulElemVec(a, b Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Mul(a[i], b[i])
	}
	return out
}

func (r Ring) MulScalarVec(a Vec, s uint64) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Mul(a[i], s)
	}
	return out
}

func (r Ring) AddScalarVec(a Vec, s uint64) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Add(a[i], s)
	}
	return out
}

func (r Ring) ShlVec(a Vec, s int) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Shl(a[i], s)
	}
	return out
}

// BitVec extracts bit i of every element.
func (r Ring) BitVec(a Vec, i int) Vec {
	out := make(Vec, len(a))
	for j := range out {
		out[j] = r.Bit(a[j], i)
	}
	return out
}

func (r Ring) Wrap2Vec(a, b Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Wrap2(a[i], b[i])
	}
	return out
}

func (r Ring) Wrap3Vec(a, b, c Vec) Vec {
	out := make(Vec, len(a))
	for i := range out {
		out[i] = r.Wrap3(a[i], b[i], c[i])
	}
	return out
}

func (r Ring) RandVec(prg *frand.RNG, n int) Vec {
	out := make(Vec, n)
	for i := range out {
		out[i] = r.RandElem(prg)
	}
	return out
}

// Scale returns base^precision, reduced into the ring.
func (r Ring) Scale(base, precision int) uint64 {
	out := r.reduce(1)
	b := r.FromInt(int64(base))
	for i := 0; i < precision; i++ {
		out = r.Mul(out, b)
	}
	return out
}

// Encode maps a real value into the ring as round(v * base^precision),
// using the signed embedding for negatives.
func (r Ring) Encode(v float64, base, precision int) uint64 {
	scaled := math.Round(v * math.Pow(float64(base), float64(precision)))
	return r.FromInt(int64(scaled))
}

func (r Ring) EncodeVec(vals []float64, base, precision int) Vec {
	out := make(Vec, len(vals))
	for i := range out {
		out[i] = r.Encode(vals[i], base, precision)
	}
	return out
}

// Decode maps a ring element back to a real value under the signed
// interpretation of the ring.
func (r Ring) Decode(x uint64, base, precision int) float64 {
	return float64(r.Signed(x)) / math.Pow(float64(base), float64(precision))
}

func (r Ring) DecodeVec(v Vec, base, precision int) []float64 {
	out := make([]float64, len(v))
	for i := range out {
		out[i] = r.Decode(v[i], base, precision)
	}
	return out
}

// TruncateSigned divides by base^precision under the signed interpretation,
// rounding toward negative infinity, and maps the result back into the ring.
// Exact arithmetic runs over big integers so large scale factors are safe.
func (r Ring) TruncateSigned(x uint64, base, precision int) uint64 {
	if precision == 0 || base == 1 {
		return x
	}
	v := big.NewInt(r.Signed(x))
	scale := new(big.Int).Exp(big.NewInt(int64(base)), big.NewInt(int64(precision)), nil)
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(v, scale, m) // Euclidean: floor for positive scale
	return r.FromInt(q.Int64())
}

package backend

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// float32Size is the byte width of one operand entry.
const float32Size = 4

// uniformSource draws operand entries from U[0,1).
type uniformSource struct {
	dist distuv.Uniform
}

// newUniformSource seeds a PCG stream from seed; zero picks a time based seed.
func newUniformSource(seed uint64) *uniformSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &uniformSource{
		dist: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

func (u *uniformSource) float32s(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		v := float32(u.dist.Rand())
		if v >= 1 {
			// float64 -> float32 rounding can land on 1.
			v = 0
		}
		out[i] = v
	}
	return out
}

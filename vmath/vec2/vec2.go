package vec2

import (
	"math/rand"
)

type T [2]float64

// UnitDiskDistribution returns a point uniformly distributed inside the unit
// disk.
func UnitDiskDistribution(rng *rand.Rand) T {
	for {
		candidate := T{
			2 * (rng.Float64() - 0.5),
			2 * (rng.Float64() - 0.5),
		}
		if candidate[0]*candidate[0]+candidate[1]*candidate[1] < 1.0 {
			return candidate
		}
	}
}

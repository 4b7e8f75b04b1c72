// Package scoring turns raw region metrics into comparable [0,1] scores.
package scoring

// NeutralScore is assigned to every element when a metric does not
// discriminate between regions.
const NeutralScore = 0.7

// Normalize min-max scales values into [0,1], preserving order. With invert set,
// lower raw values score higher. If all values are equal every element gets
// NeutralScore.
func Normalize(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	adjusted := make([]float64, len(values))
	for i, v := range values {
		if invert {
			v = -v
		}
		adjusted[i] = v
	}

	lo, hi := adjusted[0], adjusted[0]
	for _, v := range adjusted[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if lo == hi {
		for i := range out {
			out[i] = NeutralScore
		}
		return out
	}

	span := hi - lo
	for i, v := range adjusted {
		out[i] = (v - lo) / span
	}
	return out
}

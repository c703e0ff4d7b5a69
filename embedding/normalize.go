package embedding

import "math"

// normalizeVector scales vec by the requested norm and reports the
// original magnitude. "none" (or anything unrecognized) returns the
// vector untouched with a zero magnitude. A zero vector divides by 1 so
// it passes through unchanged.
func normalizeVector(vec []float32, normType string) ([]float32, float64) {
	if normType != "L2" && normType != "L1" {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, 0
	}

	var norm float64
	switch normType {
	case "L2":
		for _, x := range vec {
			norm += float64(x) * float64(x)
		}
		norm = math.Sqrt(norm)
	case "L1":
		for _, x := range vec {
			norm += math.Abs(float64(x))
		}
	}
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out, norm
}

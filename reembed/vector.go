package reembed

import "math"

// NormalizeVector returns v scaled to unit length. The magnitude is
// accumulated in float64. A zero vector yields a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	result := make([]float32, len(v))
	if sum == 0 {
		return result
	}

	magnitude := math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

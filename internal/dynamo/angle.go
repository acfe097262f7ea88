package dynamo

import "math"

const twoPi = 2 * math.Pi

// NormalizeAngle reduces a to the equivalent angle in (-π, π].
// π maps to π and -π maps to π.
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a > math.Pi {
		a -= twoPi
	} else if a <= -math.Pi {
		a += twoPi
	}
	return a
}

// AngleDiff returns the signed shortest rotation from b to a.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

package interaction

import "math"

// Scale maps a 0-100 quality onto [min, max] with a single exponential
// curve shared by every reward and feature system: tuning one exponent
// reshapes all dependent curves the same way.
func Scale(quality int, min, max, power float64) float64 {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	return min + math.Pow(float64(quality)/100, power)*(max-min)
}

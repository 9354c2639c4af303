package math

import "github.com/chewxy/math32"

// Pi2 is 2*pi as float32.
const Pi2 = 2 * math32.Pi

// Pi is pi as float32.
const Pi = math32.Pi

// Acos is a clamped arc cosine: inputs outside [-1, 1] (from accumulated
// float error in dot products) yield 0 or pi instead of NaN.
func Acos(x float32) float32 {
	if x <= -1 {
		return math32.Pi
	}
	if x >= 1 {
		return 0
	}
	return math32.Acos(x)
}

// Cos returns the cosine of x.
func Cos(x float32) float32 { return math32.Cos(x) }

// Sin returns the sine of x.
func Sin(x float32) float32 { return math32.Sin(x) }

// Abs returns the absolute value of x.
func Abs(x float32) float32 { return math32.Abs(x) }

// Floor returns the largest integer value less than or equal to x.
func Floor(x float32) float32 { return math32.Floor(x) }

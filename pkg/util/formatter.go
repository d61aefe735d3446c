package util

import (
	"fmt"
	"math"
	"math/cmplx"
)

func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Polar builds a complex value from magnitude and angle in degrees.
func Polar(mag, angleDeg float64) complex128 {
	return cmplx.Rect(mag, Radians(angleDeg))
}

func FormatPolar(v complex128) string {
	return fmt.Sprintf("%.4f<%.2fdeg", cmplx.Abs(v), Degrees(cmplx.Phase(v)))
}

func FormatRect(c complex128) string {
	if imag(c) >= 0 {
		return fmt.Sprintf("%.4f + j%.4f", real(c), imag(c))
	}
	return fmt.Sprintf("%.4f - j%.4f", real(c), math.Abs(imag(c)))
}

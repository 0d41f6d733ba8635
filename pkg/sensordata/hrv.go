// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package sensordata

import "math"

// RMSSD computes the root mean square of successive RR-interval
// differences, in milliseconds. Returns 0 for fewer than two intervals.
func RMSSD(rr []int) float64 {
	if len(rr) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(rr); i++ {
		d := float64(rr[i] - rr[i-1])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(rr)-1))
}

// EstimateSpO2 maps a red/infrared ratio-of-ratios to a percentage using
// the common linear calibration SpO2 = 110 - 25*R, clamped to [0,100].
func EstimateSpO2(ratio float64) float64 {
	pct := 110.0 - 25.0*ratio
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// CelsiusToFahrenheit converts a temperature reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

package analytics

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Respiratory sinus arrhythmia leaves a breathing-frequency oscillation
// in the RR-interval series. The estimator resamples the series evenly,
// removes the slow trend, and looks for the dominant spectral peak in
// the adult breathing band.
const (
	respSampleHz = 4.0

	respBandLowHz  = 0.15 // 9 breaths/min
	respBandHighHz = 0.40 // 24 breaths/min

	respMinBeats   = 16
	respMinSeconds = 30.0
)

// RespiratoryRate is a spectral breathing-rate estimate.
type RespiratoryRate struct {
	BreathsPerMin float64 `json:"breaths_per_min"`
	Confidence    float64 `json:"confidence"` // peak share of band power, 0-1
}

// EstimateRespiratoryRate derives breathing rate from an RR-interval
// run. Returns false when the run is too short for a stable spectrum.
func EstimateRespiratoryRate(rr []int) (RespiratoryRate, bool) {
	if len(rr) < respMinBeats {
		return RespiratoryRate{}, false
	}

	// Beat times from cumulative intervals, seconds.
	beatTimes := make([]float64, len(rr))
	values := make([]float64, len(rr))
	var t float64
	for i, interval := range rr {
		t += float64(interval) / 1000.0
		beatTimes[i] = t
		values[i] = float64(interval)
	}
	span := beatTimes[len(beatTimes)-1] - beatTimes[0]
	if span < respMinSeconds {
		return RespiratoryRate{}, false
	}

	resampled := resample(beatTimes, values, respSampleHz)
	detrend(resampled)

	fft := fourier.NewFFT(len(resampled))
	coeffs := fft.Coefficients(nil, resampled)

	var peakPower, bandPower, peakFreq float64
	for i, c := range coeffs {
		freq := fft.Freq(i) * respSampleHz
		if freq < respBandLowHz || freq > respBandHighHz {
			continue
		}
		power := real(c)*real(c) + imag(c)*imag(c)
		bandPower += power
		if power > peakPower {
			peakPower = power
			peakFreq = freq
		}
	}
	if bandPower == 0 || peakFreq == 0 {
		return RespiratoryRate{}, false
	}

	return RespiratoryRate{
		BreathsPerMin: peakFreq * 60.0,
		Confidence:    peakPower / bandPower,
	}, true
}

// resample linearly interpolates an unevenly sampled series onto an
// even grid.
func resample(times, values []float64, hz float64) []float64 {
	start, end := times[0], times[len(times)-1]
	n := int((end-start)*hz) + 1
	out := make([]float64, n)

	j := 0
	for i := 0; i < n; i++ {
		t := start + float64(i)/hz
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		t0, t1 := times[j], times[j+1]
		v0, v1 := values[j], values[j+1]
		if t1 == t0 {
			out[i] = v0
			continue
		}
		frac := (t - t0) / (t1 - t0)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		out[i] = v0 + frac*(v1-v0)
	}
	return out
}

// detrend removes the least-squares line from the series in place.
func detrend(xs []float64) {
	n := len(xs)
	if n < 2 {
		return
	}
	idx := make([]float64, n)
	for i := range idx {
		idx[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(idx, xs, nil, false)
	for i := range xs {
		xs[i] -= alpha + beta*idx[i]
	}
}

// Package analytics derives daily health metrics from decoded sensor
// records: sleep staging, recovery and strain scores, respiratory rate,
// SpO2 session quality, and activity classification. The formulas are
// standard published actigraphy/HRV methods; none of this is medical
// advice.
package analytics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// EpochLength is the windowing interval for time-binned metrics. The
// actigraphy weights below are calibrated for one-minute epochs.
const EpochLength = time.Minute

// HRSample is one timestamped heart-rate observation.
type HRSample struct {
	Time time.Time
	BPM  float64
	RR   []int // milliseconds
}

// AccelPoint is one timestamped movement magnitude in g.
type AccelPoint struct {
	Time      time.Time
	Magnitude float64
}

// Epoch aggregates all samples falling into one window.
type Epoch struct {
	Start time.Time

	HRCount int
	MeanHR  float64

	RRIntervals []int

	AccelCount    int
	AccelStd      float64 // std of |magnitude - 1 g|
	ActivityCount float64 // actigraphy-style movement count
}

// BuildEpochs bins heart-rate and accelerometer samples into contiguous
// one-minute epochs spanning the observed time range. Epochs with no
// samples at all are still emitted so gap handling is the scorers'
// decision, not a binning artifact.
func BuildEpochs(hr []HRSample, accel []AccelPoint) []Epoch {
	var first, last time.Time
	observe := func(t time.Time) {
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	for _, s := range hr {
		observe(s.Time)
	}
	for _, a := range accel {
		observe(a.Time)
	}
	if first.IsZero() {
		return nil
	}

	start := first.Truncate(EpochLength)
	n := int(last.Sub(start)/EpochLength) + 1
	epochs := make([]Epoch, n)
	for i := range epochs {
		epochs[i].Start = start.Add(time.Duration(i) * EpochLength)
	}
	index := func(t time.Time) int { return int(t.Sub(start) / EpochLength) }

	hrSums := make([]float64, n)
	for _, s := range hr {
		i := index(s.Time)
		epochs[i].HRCount++
		hrSums[i] += s.BPM
		epochs[i].RRIntervals = append(epochs[i].RRIntervals, s.RR...)
	}
	for i := range epochs {
		if epochs[i].HRCount > 0 {
			epochs[i].MeanHR = hrSums[i] / float64(epochs[i].HRCount)
		}
	}

	deviations := make([][]float64, n)
	for _, a := range accel {
		i := index(a.Time)
		deviations[i] = append(deviations[i], math.Abs(a.Magnitude-1.0))
	}
	for i, dev := range deviations {
		epochs[i].AccelCount = len(dev)
		if len(dev) >= 2 {
			epochs[i].AccelStd = stat.StdDev(dev, nil)
		}
		epochs[i].ActivityCount = activityCount(dev)
	}
	return epochs
}

// activityCount converts per-sample gravity deviations into a movement
// count comparable to wrist actigraphy units.
func activityCount(deviations []float64) float64 {
	var sum float64
	for _, d := range deviations {
		if d > 0.02 { // ignore sensor noise floor
			sum += d
		}
	}
	return sum * 100.0
}

// ============================================================
// HRV features
// ============================================================

// SDNN is the sample standard deviation of RR intervals, in ms.
func SDNN(rr []int) float64 {
	if len(rr) < 2 {
		return 0
	}
	xs := make([]float64, len(rr))
	for i, v := range rr {
		xs[i] = float64(v)
	}
	return stat.StdDev(xs, nil)
}

// PNN50 is the fraction of successive RR differences exceeding 50 ms.
func PNN50(rr []int) float64 {
	if len(rr) < 2 {
		return 0
	}
	over := 0
	for i := 1; i < len(rr); i++ {
		if math.Abs(float64(rr[i]-rr[i-1])) > 50 {
			over++
		}
	}
	return float64(over) / float64(len(rr)-1)
}

// RMSSD is the root mean square of successive RR differences, in ms.
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

// LnRMSSDScore maps RMSSD onto a 0-100 scale via the natural log, the
// common normalization for day-to-day HRV comparison. ln(RMSSD) of 6.5
// (~665 ms) pins the top of the scale.
func LnRMSSDScore(rmssd float64) float64 {
	if rmssd <= 0 {
		return 0
	}
	score := math.Log(rmssd) / 6.5 * 100.0
	return clamp(score, 0, 100)
}

// Median returns the median of xs, 0 for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package analytics

import (
	"github.com/strapline/strapline/pkg/sensordata"
)

// Session-level quality gates for raw SpO2 channel samples. These are
// tighter than the per-record decode gates: a sample can be plausible in
// isolation and still worthless in aggregate.
const (
	spo2MinRatio = 0.3
	spo2MaxRatio = 1.2
	spo2MinDC    = 50
)

// SpO2Session aggregates the quality-gated samples of a session.
type SpO2Session struct {
	MedianPct  float64 `json:"median_pct"`
	MinPct     float64 `json:"min_pct"`
	Below90    int     `json:"below_90"` // desaturation sample count
	Samples    int     `json:"samples"`
	Rejected   int     `json:"rejected"`
	QualityPct float64 `json:"quality_pct"` // accepted share, 0-100
}

// SummarizeSpO2 filters raw channel samples through the session gates
// and aggregates the survivors.
func SummarizeSpO2(raws []*sensordata.SpO2Raw) SpO2Session {
	var s SpO2Session
	var pcts []float64

	for _, r := range raws {
		if r == nil {
			continue
		}
		if r.Ratio < spo2MinRatio || r.Ratio > spo2MaxRatio ||
			r.DCRed < spo2MinDC || r.DCIr < spo2MinDC {
			s.Rejected++
			continue
		}
		pct := r.EstimatedPct
		pcts = append(pcts, pct)
		if pct < 90 {
			s.Below90++
		}
		if s.Samples == 0 || pct < s.MinPct {
			s.MinPct = pct
		}
		s.Samples++
	}

	if total := s.Samples + s.Rejected; total > 0 {
		s.QualityPct = float64(s.Samples) * 100.0 / float64(total)
	}
	s.MedianPct = Median(pcts)
	return s
}

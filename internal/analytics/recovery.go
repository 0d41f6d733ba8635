package analytics

import "fmt"

// Recovery component weights. HRV dominates; resting heart rate and
// sleep performance share the remainder.
const (
	weightHRV   = 0.50
	weightRHR   = 0.25
	weightSleep = 0.25

	// Resting-heart-rate scoring window: 50 bpm maps to 100, 90 bpm to 0.
	rhrBestBPM  = 50.0
	rhrWorstBPM = 90.0

	// Baseline trend adjustment is capped at ±10 points.
	maxTrendAdjust = 10.0
)

// RecoveryInput carries the night's measurements plus optional personal
// baselines. Zero baselines disable the trend adjustment.
type RecoveryInput struct {
	RMSSD            float64 // ms, from the night's RR intervals
	BaselineRMSSD    float64 // ms, rolling personal baseline
	RestingHR        float64 // bpm, lowest sustained rate of the night
	SleepPerformance float64 // 0-1, from SummarizeSleep
}

// Recovery is the composite readiness score.
type Recovery struct {
	Score       float64 `json:"score"` // 0-100
	Band        string  `json:"band"`  // green / yellow / red
	HRVScore    float64 `json:"hrv_score"`
	RHRScore    float64 `json:"rhr_score"`
	SleepScore  float64 `json:"sleep_score"`
	TrendAdjust float64 `json:"trend_adjust"`
}

// ScoreRecovery combines HRV, resting heart rate, and sleep performance
// into a 0-100 readiness score.
func ScoreRecovery(in RecoveryInput) Recovery {
	r := Recovery{
		HRVScore:   LnRMSSDScore(in.RMSSD),
		RHRScore:   scoreRestingHR(in.RestingHR),
		SleepScore: clamp(in.SleepPerformance, 0, 1) * 100.0,
	}

	if in.BaselineRMSSD > 0 && in.RMSSD > 0 {
		// Percent deviation from baseline, half-weighted, capped.
		delta := (in.RMSSD - in.BaselineRMSSD) / in.BaselineRMSSD * 50.0
		r.TrendAdjust = clamp(delta, -maxTrendAdjust, maxTrendAdjust)
	}

	score := weightHRV*r.HRVScore + weightRHR*r.RHRScore + weightSleep*r.SleepScore
	r.Score = clamp(score+r.TrendAdjust, 0, 100)
	r.Band = recoveryBand(r.Score)
	return r
}

func scoreRestingHR(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	score := (rhrWorstBPM - bpm) / (rhrWorstBPM - rhrBestBPM) * 100.0
	return clamp(score, 0, 100)
}

func recoveryBand(score float64) string {
	switch {
	case score >= 67:
		return "green"
	case score >= 34:
		return "yellow"
	default:
		return "red"
	}
}

// String renders a one-line summary.
func (r Recovery) String() string {
	return fmt.Sprintf("recovery %.0f%% (%s): hrv=%.0f rhr=%.0f sleep=%.0f trend=%+.1f",
		r.Score, r.Band, r.HRVScore, r.RHRScore, r.SleepScore, r.TrendAdjust)
}

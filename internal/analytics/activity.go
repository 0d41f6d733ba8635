package analytics

// ActivityLevel classifies one epoch's intensity.
type ActivityLevel int

// Activity levels
const (
	ActivitySedentary ActivityLevel = iota
	ActivityLight
	ActivityModerate
	ActivityVigorous
)

// String returns the level name.
func (l ActivityLevel) String() string {
	switch l {
	case ActivitySedentary:
		return "sedentary"
	case ActivityLight:
		return "light"
	case ActivityModerate:
		return "moderate"
	case ActivityVigorous:
		return "vigorous"
	default:
		return "unknown"
	}
}

// Movement and heart-rate classification thresholds. The final level is
// the higher of the two signals: stationary cycling moves the wrist
// barely but the heart plenty.
var (
	accelStdBounds = [3]float64{0.05, 0.20, 0.50} // g
	hrFracBounds   = [3]float64{0.50, 0.60, 0.80} // fraction of max HR
)

// MET estimates per level, used for the calorie estimate.
var levelMETs = [4]float64{1.3, 2.5, 4.5, 7.0}

// DefaultBodyWeightKG is assumed when the wearer's weight is unknown.
const DefaultBodyWeightKG = 70.0

// ActivitySummary aggregates a day of classified epochs.
type ActivitySummary struct {
	Minutes  [4]float64 `json:"minutes"` // indexed by ActivityLevel
	Calories float64    `json:"calories"`
}

// ClassifyEpoch grades one epoch from its movement and heart rate.
func ClassifyEpoch(e Epoch, maxHR int) ActivityLevel {
	level := gradeBounds(e.AccelStd, accelStdBounds)
	if e.HRCount > 0 && maxHR > 0 {
		hrLevel := gradeBounds(e.MeanHR/float64(maxHR), hrFracBounds)
		if hrLevel > level {
			level = hrLevel
		}
	}
	return level
}

func gradeBounds(v float64, bounds [3]float64) ActivityLevel {
	switch {
	case v < bounds[0]:
		return ActivitySedentary
	case v < bounds[1]:
		return ActivityLight
	case v < bounds[2]:
		return ActivityModerate
	default:
		return ActivityVigorous
	}
}

// SummarizeActivity classifies every epoch and estimates energy
// expenditure with the standard MET formula
// kcal/min = MET * 3.5 * kg / 200.
func SummarizeActivity(epochs []Epoch, maxHR int, weightKG float64) ActivitySummary {
	if weightKG <= 0 {
		weightKG = DefaultBodyWeightKG
	}

	var s ActivitySummary
	for _, e := range epochs {
		if e.HRCount == 0 && e.AccelCount == 0 {
			continue // no data, no classification
		}
		level := ClassifyEpoch(e, maxHR)
		minutes := EpochLength.Minutes()
		s.Minutes[level] += minutes
		s.Calories += levelMETs[level] * 3.5 * weightKG / 200.0 * minutes
	}
	return s
}

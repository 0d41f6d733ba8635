package analytics

import "math"

// Heart-rate zones as fractions of maximum heart rate, with the TRIMP
// weight applied to minutes spent in each. The top boundary is open
// enough to absorb readings slightly over the configured maximum.
var (
	zoneBounds  = [6]float64{0.50, 0.60, 0.70, 0.80, 0.90, 1.01}
	zoneWeights = [5]float64{0.5, 1, 2, 4, 8}
)

// strainScale sets how fast accumulated TRIMP saturates the 0-21 scale.
const strainScale = 400.0 / 3.0

// Strain is the day's cardiovascular load on the familiar 0-21 scale.
type Strain struct {
	Score       float64    `json:"score"` // 0-21
	TRIMP       float64    `json:"trimp"`
	ZoneMinutes [5]float64 `json:"zone_minutes"`
}

// ScoreStrain accumulates training impulse over the epochs. Each epoch
// contributes its length at its mean heart rate; time below half of max
// heart rate does not count toward load.
func ScoreStrain(epochs []Epoch, maxHR int) Strain {
	var s Strain
	if maxHR <= 0 {
		return s
	}

	for _, e := range epochs {
		if e.HRCount == 0 {
			continue
		}
		zone := hrZone(e.MeanHR / float64(maxHR))
		if zone < 0 {
			continue
		}
		minutes := EpochLength.Minutes()
		s.ZoneMinutes[zone] += minutes
		s.TRIMP += minutes * zoneWeights[zone]
	}

	// Asymptotic mapping: strain gets progressively harder to add, and
	// never exceeds 21.
	s.Score = 21.0 * (1.0 - math.Exp(-s.TRIMP/strainScale))
	return s
}

// hrZone returns the zone index for a fraction of max heart rate, or -1
// below the first boundary.
func hrZone(frac float64) int {
	if frac < zoneBounds[0] {
		return -1
	}
	for i := 1; i < len(zoneBounds); i++ {
		if frac < zoneBounds[i] {
			return i - 1
		}
	}
	return len(zoneWeights) - 1
}

package analytics

import "time"

// Cole-Kripke actigraphy weights for one-minute epochs, applied over a
// seven-epoch window centered on the scored minute (four before, the
// minute itself, two after). The weighted sum scales by 1e-5; below 1.0
// the minute scores as sleep.
var coleKripkeWeights = [7]float64{404, 598, 326, 441, 1408, 508, 350}

const (
	coleKripkeScale     = 1e-5
	coleKripkeThreshold = 1.0

	// Webster rescoring: brief wake bouts flanked by sleep are scored
	// back to sleep.
	websterMaxWakeBout = 3 // epochs
)

// SleepEpoch is one scored minute.
type SleepEpoch struct {
	Epoch
	Asleep bool
}

// SleepSummary aggregates a night of scored epochs.
type SleepSummary struct {
	TotalSleep  time.Duration `json:"total_sleep"`
	TotalWake   time.Duration `json:"total_wake"`
	Efficiency  float64       `json:"efficiency"`  // sleep / in-bed, 0-1
	LongestBout time.Duration `json:"longest_bout"`
	Performance float64       `json:"performance"` // sleep / need, 0-1
}

// ScoreSleep stages each epoch as sleep or wake using Cole-Kripke
// scoring, Webster rescoring, and a heart-rate cross-check.
func ScoreSleep(epochs []Epoch, restingHR int) []SleepEpoch {
	scored := make([]SleepEpoch, len(epochs))
	for i := range epochs {
		scored[i] = SleepEpoch{Epoch: epochs[i], Asleep: coleKripke(epochs, i)}
	}
	rescoreWebster(scored)
	rescoreHeartRate(scored, restingHR)
	return scored
}

func coleKripke(epochs []Epoch, t int) bool {
	var sum float64
	for i, w := range coleKripkeWeights {
		j := t - 4 + i
		if j < 0 || j >= len(epochs) {
			continue
		}
		sum += w * epochs[j].ActivityCount
	}
	return sum*coleKripkeScale < coleKripkeThreshold
}

// rescoreWebster flips wake bouts shorter than websterMaxWakeBout back
// to sleep when sleep surrounds them on both sides.
func rescoreWebster(scored []SleepEpoch) {
	i := 0
	for i < len(scored) {
		if scored[i].Asleep {
			i++
			continue
		}
		j := i
		for j < len(scored) && !scored[j].Asleep {
			j++
		}
		surrounded := i > 0 && j < len(scored)
		if surrounded && j-i < websterMaxWakeBout {
			for k := i; k < j; k++ {
				scored[k].Asleep = true
			}
		}
		i = j
	}
}

// rescoreHeartRate flips motionless wake epochs whose mean heart rate
// sits at or below the resting rate. Actigraphy alone over-scores quiet
// wakefulness; an at-rest heart rate during zero movement is a strong
// sleep signal from this sensor.
func rescoreHeartRate(scored []SleepEpoch, restingHR int) {
	for i := range scored {
		e := &scored[i]
		if e.Asleep || e.HRCount == 0 {
			continue
		}
		if e.ActivityCount == 0 && e.MeanHR <= float64(restingHR) {
			e.Asleep = true
		}
	}
}

// SummarizeSleep reduces scored epochs to the nightly totals. needHours
// is the wearer's configured sleep need.
func SummarizeSleep(scored []SleepEpoch, needHours float64) SleepSummary {
	var s SleepSummary
	var bout, longest time.Duration

	for _, e := range scored {
		if e.Asleep {
			s.TotalSleep += EpochLength
			bout += EpochLength
			if bout > longest {
				longest = bout
			}
		} else {
			s.TotalWake += EpochLength
			bout = 0
		}
	}
	s.LongestBout = longest

	inBed := s.TotalSleep + s.TotalWake
	if inBed > 0 {
		s.Efficiency = float64(s.TotalSleep) / float64(inBed)
	}
	if needHours > 0 {
		s.Performance = clamp(s.TotalSleep.Hours()/needHours, 0, 1)
	}
	return s
}

package analytics

import (
	"time"

	"go.uber.org/zap"

	"github.com/strapline/strapline/internal/logging"
	"github.com/strapline/strapline/pkg/sensordata"
)

// TimedRecord pairs a decoded record with its observation time. Records
// carrying their own epoch timestamp (historical data) use it; real-time
// records are stamped by the caller, typically with the capture time.
type TimedRecord struct {
	Time   time.Time
	Record sensordata.Record
}

// Options carries the wearer's physiology and baselines.
type Options struct {
	MaxHeartRate     int
	RestingHeartRate int
	SleepNeedHours   float64
	BodyWeightKG     float64
	BaselineRMSSD    float64 // ms; 0 disables the recovery trend adjustment
}

// earliest plausible on-device epoch timestamp; smaller values are tick
// counters, not wall time
const minEpochTimestamp = 1_000_000_000

// Run executes the full scoring pipeline over a session's records.
func Run(records []TimedRecord, opts Options) DailySummary {
	var (
		hrSamples []HRSample
		accel     []AccelPoint
		allRR     []int
		temps     []float64
		spo2Raws  []*sensordata.SpO2Raw
		spo2Pcts  []float64
	)

	for _, tr := range records {
		switch rec := tr.Record.(type) {
		case sensordata.HeartRateData:
			t := tr.Time
			if rec.RawCounter >= minEpochTimestamp {
				t = time.Unix(int64(rec.RawCounter), 0)
			}
			hrSamples = append(hrSamples, HRSample{Time: t, BPM: rec.PreciseBPM, RR: rec.RRIntervals})
			allRR = append(allRR, rec.RRIntervals...)

		case sensordata.ComprehensiveRecord:
			t := tr.Time
			if rec.Timestamp >= minEpochTimestamp {
				t = time.Unix(int64(rec.Timestamp), 0)
			}
			if rec.HeartRate != nil {
				hrSamples = append(hrSamples, HRSample{Time: t, BPM: rec.HeartRate.PreciseBPM, RR: rec.HeartRate.RRIntervals})
				allRR = append(allRR, rec.HeartRate.RRIntervals...)
			}
			if rec.Temperature != nil {
				temps = append(temps, rec.Temperature.Celsius)
			}
			if rec.SpO2 != nil {
				spo2Raws = append(spo2Raws, rec.SpO2)
			}

		case sensordata.AccelBatch:
			for _, s := range rec.Samples {
				accel = append(accel, AccelPoint{Time: tr.Time, Magnitude: s.Magnitude()})
			}

		case sensordata.TemperatureData:
			temps = append(temps, rec.Celsius)

		case sensordata.SpO2Data:
			spo2Pcts = append(spo2Pcts, rec.Percentage)
		}
	}

	epochs := BuildEpochs(hrSamples, accel)
	logging.Debug("Pipeline input",
		zap.Int("hr_samples", len(hrSamples)),
		zap.Int("accel_points", len(accel)),
		zap.Int("epochs", len(epochs)),
		zap.Int("rr_intervals", len(allRR)),
	)

	summary := DailySummary{
		GeneratedAt: time.Now(),
		Epochs:      len(epochs),
		HRSamples:   len(hrSamples),
	}

	summary.HRV = HRVSummary{
		RMSSD: RMSSD(allRR),
		SDNN:  SDNN(allRR),
		PNN50: PNN50(allRR),
	}

	scored := ScoreSleep(epochs, opts.RestingHeartRate)
	summary.Sleep = SummarizeSleep(scored, opts.SleepNeedHours)

	summary.Recovery = ScoreRecovery(RecoveryInput{
		RMSSD:            summary.HRV.RMSSD,
		BaselineRMSSD:    opts.BaselineRMSSD,
		RestingHR:        restingHROfNight(scored),
		SleepPerformance: summary.Sleep.Performance,
	})

	summary.Strain = ScoreStrain(epochs, opts.MaxHeartRate)

	if resp, ok := EstimateRespiratoryRate(allRR); ok {
		summary.Respiratory = &resp
	}

	summary.SpO2 = SummarizeSpO2(spo2Raws)
	for _, pct := range spo2Pcts {
		// Direct percentage records bypass the channel gates.
		summary.SpO2.Samples++
		if pct < 90 {
			summary.SpO2.Below90++
		}
	}

	summary.Activity = SummarizeActivity(epochs, opts.MaxHeartRate, opts.BodyWeightKG)
	summary.Temperature = summarizeTemps(temps)

	return summary
}

// restingHROfNight estimates resting heart rate as the lowest epoch mean
// during scored sleep, falling back to the lowest overall.
func restingHROfNight(scored []SleepEpoch) float64 {
	var lowestAsleep, lowestAny float64
	for _, e := range scored {
		if e.HRCount == 0 {
			continue
		}
		if lowestAny == 0 || e.MeanHR < lowestAny {
			lowestAny = e.MeanHR
		}
		if e.Asleep && (lowestAsleep == 0 || e.MeanHR < lowestAsleep) {
			lowestAsleep = e.MeanHR
		}
	}
	if lowestAsleep > 0 {
		return lowestAsleep
	}
	return lowestAny
}

func summarizeTemps(temps []float64) TemperatureSummary {
	var s TemperatureSummary
	for _, c := range temps {
		if s.Samples == 0 || c < s.MinC {
			s.MinC = c
		}
		if s.Samples == 0 || c > s.MaxC {
			s.MaxC = c
		}
		s.MeanC += c
		s.Samples++
	}
	if s.Samples > 0 {
		s.MeanC /= float64(s.Samples)
	}
	return s
}

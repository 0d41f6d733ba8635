package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HRVSummary aggregates heart-rate variability over the whole session.
type HRVSummary struct {
	RMSSD float64 `json:"rmssd_ms"`
	SDNN  float64 `json:"sdnn_ms"`
	PNN50 float64 `json:"pnn50"`
}

// TemperatureSummary aggregates skin-temperature readings.
type TemperatureSummary struct {
	MeanC   float64 `json:"mean_c"`
	MinC    float64 `json:"min_c"`
	MaxC    float64 `json:"max_c"`
	Samples int     `json:"samples"`
}

// DailySummary is the pipeline's complete output, serializable as JSON.
type DailySummary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Epochs      int       `json:"epochs"`
	HRSamples   int       `json:"hr_samples"`

	HRV         HRVSummary         `json:"hrv"`
	Sleep       SleepSummary       `json:"sleep"`
	Recovery    Recovery           `json:"recovery"`
	Strain      Strain             `json:"strain"`
	Respiratory *RespiratoryRate   `json:"respiratory,omitempty"`
	SpO2        SpO2Session        `json:"spo2"`
	Activity    ActivitySummary    `json:"activity"`
	Temperature TemperatureSummary `json:"temperature"`
}

// JSON renders the summary as indented JSON.
func (s DailySummary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// String renders a human-readable report.
func (s DailySummary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Daily Summary ===\n")
	fmt.Fprintf(&b, "Epochs:      %d (%d HR samples)\n", s.Epochs, s.HRSamples)
	fmt.Fprintf(&b, "HRV:         RMSSD %.1f ms, SDNN %.1f ms, pNN50 %.0f%%\n",
		s.HRV.RMSSD, s.HRV.SDNN, s.HRV.PNN50*100)
	fmt.Fprintf(&b, "Sleep:       %s asleep, %.0f%% efficient, performance %.0f%%\n",
		formatHM(s.Sleep.TotalSleep), s.Sleep.Efficiency*100, s.Sleep.Performance*100)
	fmt.Fprintf(&b, "Recovery:    %.0f%% (%s)\n", s.Recovery.Score, s.Recovery.Band)
	fmt.Fprintf(&b, "Strain:      %.1f (TRIMP %.0f)\n", s.Strain.Score, s.Strain.TRIMP)
	if s.Respiratory != nil {
		fmt.Fprintf(&b, "Respiration: %.1f breaths/min (confidence %.0f%%)\n",
			s.Respiratory.BreathsPerMin, s.Respiratory.Confidence*100)
	}
	if s.SpO2.Samples > 0 {
		fmt.Fprintf(&b, "SpO2:        median %.1f%%, min %.1f%%, %d below 90%%\n",
			s.SpO2.MedianPct, s.SpO2.MinPct, s.SpO2.Below90)
	}
	if s.Temperature.Samples > 0 {
		fmt.Fprintf(&b, "Skin temp:   %.2f C (%.2f-%.2f)\n",
			s.Temperature.MeanC, s.Temperature.MinC, s.Temperature.MaxC)
	}
	fmt.Fprintf(&b, "Activity:    sedentary %.0fm, light %.0fm, moderate %.0fm, vigorous %.0fm (~%.0f kcal)\n",
		s.Activity.Minutes[ActivitySedentary], s.Activity.Minutes[ActivityLight],
		s.Activity.Minutes[ActivityModerate], s.Activity.Minutes[ActivityVigorous],
		s.Activity.Calories)
	b.WriteString("=====================\n")

	return b.String()
}

func formatHM(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}

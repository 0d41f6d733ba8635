// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/strapline/strapline/pkg/sensordata"
)

// describeRecord renders one decoded record as a log line.
func describeRecord(rec sensordata.Record) string {
	switch r := rec.(type) {
	case sensordata.HeartRateData:
		var b strings.Builder
		fmt.Fprintf(&b, "HR %3d bpm (%.2f)", r.BPM, r.PreciseBPM)
		if len(r.RRIntervals) > 0 {
			fmt.Fprintf(&b, " RR=%v ms", r.RRIntervals)
		}
		if !r.Wearing {
			b.WriteString(" [off wrist]")
		}
		return b.String()

	case sensordata.AccelBatch:
		if len(r.Samples) == 0 {
			return "ACCEL empty batch"
		}
		last := r.Samples[len(r.Samples)-1]
		return fmt.Sprintf("ACCEL %d samples, last x=%+.2f y=%+.2f z=%+.2f |%.2f|g",
			len(r.Samples), last.X, last.Y, last.Z, last.Magnitude())

	case sensordata.TemperatureData:
		return fmt.Sprintf("TEMP %.2f C (%.2f F)", r.Celsius, r.Fahrenheit)

	case sensordata.SpO2Data:
		if r.HasConfidence {
			return fmt.Sprintf("SPO2 %.1f%% (conf %.0f%%)", r.Percentage, r.Confidence)
		}
		return fmt.Sprintf("SPO2 %.1f%%", r.Percentage)

	case sensordata.ComprehensiveRecord:
		var parts []string
		if r.HeartRate != nil {
			parts = append(parts, fmt.Sprintf("hr=%d rr=%v", r.HeartRate.BPM, r.HeartRate.RRIntervals))
		}
		if r.Temperature != nil {
			parts = append(parts, fmt.Sprintf("temp=%.2fC", r.Temperature.Celsius))
		}
		if r.SpO2 != nil {
			if r.SpO2.Accepted() {
				parts = append(parts, fmt.Sprintf("spo2~%.1f%% (R=%.2f)", r.SpO2.EstimatedPct, r.SpO2.Ratio))
			} else {
				parts = append(parts, "spo2 channels rejected")
			}
		}
		if len(parts) == 0 {
			parts = append(parts, "no decodable sections")
		}
		ts := time.Unix(int64(r.Timestamp), 0).UTC().Format("2006-01-02 15:04:05")
		return fmt.Sprintf("HIST %s %s", ts, strings.Join(parts, " "))

	case sensordata.EventRecord:
		return fmt.Sprintf("EVENT id=0x%02X ts=%d data=% X", r.EventID, r.Timestamp, r.Data)

	case sensordata.UnknownRecord:
		return fmt.Sprintf("UNKNOWN subtype=0x%02X %d bytes", r.Subtype, len(r.Raw))

	default:
		return fmt.Sprintf("%#v", rec)
	}
}

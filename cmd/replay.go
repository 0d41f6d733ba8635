// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Strapline Contributors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strapline/strapline/internal/analytics"
	"github.com/strapline/strapline/internal/capture"
)

var (
	replayAnalyze bool
	replayJSON    bool
	replayQuiet   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a capture file offline",
	Long: `Re-run the protocol decoders over a capture file and print every record
that falls out, followed by link statistics.

With --analyze the decoded records feed the health-metric pipeline and a
daily summary is printed instead of the raw record log (use --json for a
machine-readable summary).`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayAnalyze, "analyze", false, "Run the health-metric pipeline over the decoded records")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Emit the analysis summary as JSON (implies --analyze)")
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Suppress the per-record log")
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := args[0]
	result, err := capture.Replay(path)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if replayJSON {
		replayAnalyze = true
	}

	if !replayQuiet && !replayAnalyze {
		for _, de := range result.Entries {
			ts := de.Entry.Time().Format("15:04:05.000")
			for _, rec := range de.Records {
				fmt.Printf("%s  %s\n", ts, describeRecord(rec))
			}
		}
		fmt.Println()
	}

	if replayAnalyze {
		var timed []analytics.TimedRecord
		for _, de := range result.Entries {
			at := de.Entry.Time()
			for _, rec := range de.Records {
				timed = append(timed, analytics.TimedRecord{Time: at, Record: rec})
			}
		}
		summary := analytics.Run(timed, analytics.Options{
			MaxHeartRate:     cfg.MaxHeartRate,
			RestingHeartRate: cfg.RestingHeartRate,
			SleepNeedHours:   cfg.SleepNeedHours,
		})
		if replayJSON {
			out, err := summary.JSON()
			if err != nil {
				return err
			}
			os.Stdout.Write(append(out, '\n'))
			return nil
		}
		fmt.Print(summary.String())
		fmt.Println()
	}

	fmt.Printf("Entries: %d decoded, %d non-proprietary, %d skipped, %d bytes\n",
		len(result.Entries), result.NonProto, result.Skipped, result.TotalBytes)
	fmt.Printf("%s\n", result.Stats)
	return nil
}

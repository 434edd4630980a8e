package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidewatch-sim/internal/fleet"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded reading log",
	Long:  "replay feeds reading rows from a JSONL log back into the configured sinks or STDOUT, preserving their relative timing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer, cleanup, err := newReadingWriter(replayPrintOnly)
		if err != nil {
			return err
		}
		defer cleanup()
		return fleet.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to reading log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print readings to STDOUT instead of writing to sinks")
	replayCmd.MarkFlagRequired("input")
}

package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
)

// cycleCmd runs one analysis cycle and exits
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one analysis cycle and print the result",
	Long: `Fetches quotes for every catalog instrument, scores and activates signals,
raises notifications and prints the cycle summary and the active signals.

Example:
  go run ./cmd/fxpulse cycle
  STORAGE_DRIVER=memory go run ./cmd/fxpulse cycle --timeout 20s`,
	RunE: runCycle,
}

var cycleTimeout time.Duration

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().DurationVar(&cycleTimeout, "timeout", 30*time.Second, "cycle deadline")
}

func runCycle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), cycleTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	summary := a.runner.RunCycle(ctx, contracts.TriggerManual)
	PrintCycleSummary(summary)

	signals, err := a.signals.ActiveSignals(ctx)
	if err != nil {
		return fmt.Errorf("load active signals: %w", err)
	}
	PrintSignals(signals)

	if summary.Processed == 0 && summary.Failed > 0 {
		return fmt.Errorf("cycle failed for every symbol")
	}
	return nil
}

// PrintCycleSummary prints counts and per-symbol failures
func PrintCycleSummary(s *contracts.CycleSummary) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Cycle (%s)\n", s.Trigger)
	PrintSeparator()
	fmt.Printf("  Started   : %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Duration  : %s\n", s.Duration.Round(time.Millisecond))
	fmt.Printf("  Processed : %d\n", s.Processed)
	fmt.Printf("  Skipped   : %d\n", s.Skipped)
	fmt.Printf("  Failed    : %d\n", s.Failed)
	PrintSeparator()

	for _, f := range s.Failures {
		PrintError(fmt.Sprintf("%s [%s] %s", f.Symbol, f.Stage, f.Error))
	}
}

// PrintSignals prints the active signals as a table
func PrintSignals(signals []contracts.Signal) {
	if len(signals) == 0 {
		PrintWarning("No active signals")
		return
	}

	widths := []int{8, 8, 8, 10, 14, 30}
	fmt.Println()
	PrintTableHeader([]string{"SYMBOL", "SIGNAL", "STRENGTH", "CONFIDENCE", "ENTRY", "PATTERNS"}, widths)
	for _, s := range signals {
		PrintTableRow([]string{
			s.Symbol,
			string(s.Direction),
			strconv.Itoa(s.Strength),
			strconv.FormatFloat(s.Confidence, 'f', 1, 64),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
			s.Pattern(),
		}, widths)
	}
}

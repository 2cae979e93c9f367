package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fxpulse/internal/s1_signals"
	"github.com/wonny/fxpulse/pkg/config"
)

// catalogCmd validates and prints the instrument catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and print the instrument catalog",
	Long: `Loads INSTRUMENTS_FILE (or --file), validates it and prints every entry
with the strength bonus the scorer applies.

Example:
  go run ./cmd/fxpulse catalog --file configs/instruments.yaml`,
	RunE: runCatalog,
}

var catalogFile string

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVar(&catalogFile, "file", "", "catalog file (overrides INSTRUMENTS_FILE)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path := catalogFile
	premium := map[string]int{}
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Pipeline.InstrumentsFile
		premium = cfg.Pipeline.Premium
	}

	cat, err := config.LoadCatalog(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintCatalog(cat, s1_signals.NewScorer(premium))
	PrintSuccess(fmt.Sprintf("%s: %d instruments", path, len(cat.Instruments)))
	return nil
}

// PrintCatalog prints catalog entries as a table
func PrintCatalog(cat *config.Catalog, scorer *s1_signals.Scorer) {
	widths := []int{8, 30, 18, 8, 6}
	fmt.Println()
	PrintTableHeader([]string{"SYMBOL", "NAME", "PROVIDER", "SPREAD", "BONUS"}, widths)
	for _, e := range cat.Instruments {
		bonus := "-"
		if p, ok := scorer.Premium(e.Symbol); ok {
			bonus = "+" + strconv.Itoa(p.Bonus)
		}
		PrintTableRow([]string{
			e.Symbol,
			e.Name,
			e.ProviderSymbol,
			strconv.FormatFloat(e.Spread, 'f', -1, 64),
			bonus,
		}, widths)
	}
}

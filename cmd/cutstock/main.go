// Command cutstock optimizes cut lists onto stock sheets from the command
// line. Jobs and results are exchanged as JSON files so the tool slots into
// the quotation pipeline without a GUI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/craftplan/cutstock/internal/engine"
	"github.com/craftplan/cutstock/internal/job"
	"github.com/craftplan/cutstock/internal/model"
)

var rootCmd = &cobra.Command{
	Use:   "cutstock",
	Short: "Cutting-stock optimizer for sheet materials",
	Long: `cutstock packs rectangular panels onto stock sheets using a
guillotine-cut optimizer, minimizing the number of sheets and the waste.`,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <job.json>",
	Short: "Pack a job's parts onto sheets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := job.Load(args[0])
		if err != nil {
			return err
		}
		if ms := viper.GetInt("budget_ms"); ms > 0 {
			j.TimeBudgetMs = ms
		}

		var opts []engine.Option
		opts = append(opts, engine.WithLogger(slog.Default()))
		if viper.IsSet("seed") {
			opts = append(opts, engine.WithSeed(viper.GetInt64("seed")))
		}

		res, err := engine.Optimize(cmd.Context(), j, opts...)
		if err != nil {
			return err
		}

		if out := viper.GetString("output"); out != "" {
			if err := job.SaveResult(out, res); err != nil {
				return err
			}
		}
		printSummary(cmd, res)
		return nil
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <job.json>",
	Short: "Quick sheet-count and cost estimate without packing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := job.Load(args[0])
		if err != nil {
			return err
		}
		est := model.EstimatePurchase(j.Parts, j.Sheet,
			viper.GetFloat64("waste_percent"), viper.GetFloat64("price_per_sheet"))
		cmd.Printf("Parts area:      %.0f sqmm (%.2f sqft)\n", est.TotalPartArea, est.TotalSquareFeet)
		cmd.Printf("Sheets minimum:  %d (%.2f exact)\n", est.SheetsNeededMin, est.SheetsNeededExact)
		cmd.Printf("Sheets to buy:   %d (+%.0f%% waste)\n", est.SheetsWithWaste, est.WastePercent)
		if est.EstimatedCost > 0 {
			cmd.Printf("Estimated cost:  %.2f\n", est.EstimatedCost)
		}
		return nil
	},
}

func printSummary(cmd *cobra.Command, res model.PackResult) {
	cmd.Printf("Strategy:    %s\n", res.Strategy)
	cmd.Printf("Sheets:      %d\n", res.Totals.SheetCount)
	cmd.Printf("Efficiency:  %.1f%%\n", res.Totals.EfficiencyPercent)
	cmd.Printf("Waste:       %.0f sqmm (%.1f%%)\n", res.Totals.WasteArea, res.Totals.WastePercent)
	if len(res.Offcuts) > 0 {
		cmd.Printf("Offcuts:     %d reusable\n", len(res.Offcuts))
	}
	if len(res.Unplaced) > 0 {
		cmd.Printf("UNPLACED:    %d pieces\n", len(res.Unplaced))
		for _, u := range res.Unplaced {
			cmd.Printf("  - %s %s (%.0fx%.0f): %s\n",
				u.Part.ID, u.Part.Label, u.Part.Width, u.Part.Height, u.Reason)
		}
	}
}

func init() {
	optimizeCmd.Flags().Int("budget-ms", 0, "override the job's time budget in milliseconds")
	optimizeCmd.Flags().Int64("seed", 0, "fixed random seed for reproducible runs")
	optimizeCmd.Flags().StringP("output", "o", "", "write the full result JSON to this path")
	viper.BindPFlag("budget_ms", optimizeCmd.Flags().Lookup("budget-ms"))
	viper.BindPFlag("seed", optimizeCmd.Flags().Lookup("seed"))
	viper.BindPFlag("output", optimizeCmd.Flags().Lookup("output"))

	estimateCmd.Flags().Float64("waste-percent", 15, "waste allowance added to the parts area")
	estimateCmd.Flags().Float64("price-per-sheet", 0, "sheet price for the cost line")
	viper.BindPFlag("waste_percent", estimateCmd.Flags().Lookup("waste-percent"))
	viper.BindPFlag("price_per_sheet", estimateCmd.Flags().Lookup("price-per-sheet"))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetEnvPrefix("CUTSTOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})

	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(estimateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

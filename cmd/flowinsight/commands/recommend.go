package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flowinsight/internal/recommend"
	"flowinsight/internal/storage"
)

var (
	recommendDate  string
	recommendDays  int
	recommendLimit int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Compute and store the daily recommendation shortlist",
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendDate, "date", "", "as-of date, YYYY-MM-DD (default today)")
	recommendCmd.Flags().IntVar(&recommendDays, "days", recommend.DefaultWindowDays, "trailing window in calendar days")
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", recommend.DefaultLimit, "shortlist size")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	asOf := time.Now().Truncate(24 * time.Hour)
	if recommendDate != "" {
		asOf, err = time.Parse("2006-01-02", recommendDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", recommendDate, err)
		}
	}

	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	recRepo := storage.NewRecommendationRepository(rt.db.Pool)
	calc := recommend.New(flowRepo, recRepo, rt.log)

	entries, err := calc.CalculateAndSave(cmd.Context(), asOf, recommendDays, recommendLimit)
	if err != nil {
		return err
	}

	fmt.Printf("shortlist for %s: %d entries\n", asOf.Format("2006-01-02"), len(entries))
	for _, e := range entries {
		fmt.Printf("  %2d. %s %s  main inflow %.0f\n", e.SortOrder, e.StockCode, e.StockName, e.TotalMainInflow)
	}
	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flowinsight/internal/health"
	"flowinsight/internal/market"
	"flowinsight/internal/storage"
)

var healthDate string

var healthCmd = &cobra.Command{
	Use:   "health <secid>",
	Short: "Compute and store the health score for one security",
	Args:  cobra.ExactArgs(1),
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthDate, "date", "", "score date, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	secid := args[0]
	if _, _, err := market.ParseSecid(secid); err != nil {
		// accept a bare 6-digit code and infer the market
		inferred, ferr := market.SecidForCode(secid)
		if ferr != nil {
			return err
		}
		secid = inferred
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	asOf := time.Now().Truncate(24 * time.Hour)
	if healthDate != "" {
		asOf, err = time.Parse("2006-01-02", healthDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", healthDate, err)
		}
	}

	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	scoreRepo := storage.NewHealthScoreRepository(rt.db.Pool)
	calc := health.New(flowRepo, scoreRepo, rt.log)

	label := secid
	stockRepo := storage.NewStockRepository(rt.db.Pool)
	if stock, err := stockRepo.GetBySecid(cmd.Context(), secid); err == nil {
		label = fmt.Sprintf("%s (%s)", stock.StockName, secid)
	}

	score, err := calc.Refresh(cmd.Context(), secid, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: score %d, trend %s, risk %s\n",
		label, asOf.Format("2006-01-02"), score.HealthScore, score.TrendDirection, score.RiskLevel)
	fmt.Printf("  inflow %d, trend %d, price %d, turnover %d\n",
		score.Details.InflowScore, score.Details.TrendScore, score.Details.PriceScore, score.Details.TurnoverScore)
	fmt.Printf("  main net inflow 7d %.0f, 30d %.0f\n", score.MainNetInflow7d, score.MainNetInflow30d)
	if score.Message != "" {
		fmt.Printf("  note: %s\n", score.Message)
	}
	return nil
}

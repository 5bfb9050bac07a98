package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowinsight/internal/collector"
	"flowinsight/internal/external/eastmoney"
	"flowinsight/internal/storage"
)

var collectSecid string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a one-off data collection",
}

var collectStocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "Sync the A-share stock list",
	RunE:  runCollectStocks,
}

var collectFlowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Sync capital-flow history for one security or all of them",
	RunE:  runCollectFlows,
}

var collectIndexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Snapshot the major index quotes",
	RunE:  runCollectIndexes,
}

func init() {
	collectFlowsCmd.Flags().StringVar(&collectSecid, "secid", "", "sync a single security, e.g. 1.600519")
	collectCmd.AddCommand(collectStocksCmd, collectFlowsCmd, collectIndexesCmd)
	rootCmd.AddCommand(collectCmd)
}

func newCollector(rt *runtime) *collector.Collector {
	stockRepo := storage.NewStockRepository(rt.db.Pool)
	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	indexRepo := storage.NewIndexSnapshotRepository(rt.db.Pool)
	provider := eastmoney.NewClient(rt.cfg, rt.log)
	return collector.New(provider, stockRepo, flowRepo, indexRepo, rt.log)
}

func runCollectStocks(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	stats, err := newCollector(rt).SyncStockList(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("stock list synced: %d stocks in %s\n", stats.Synced, stats.Duration)
	return nil
}

func runCollectFlows(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	col := newCollector(rt)
	if collectSecid != "" {
		rows, err := col.SyncFlowHistory(cmd.Context(), collectSecid, collector.DefaultHistoryDepth)
		if err != nil {
			return err
		}
		fmt.Printf("flow history synced: %s, %d rows\n", collectSecid, rows)
		return nil
	}

	stats, err := col.SyncAllFlowHistory(cmd.Context(), collector.DefaultHistoryDepth)
	if err != nil {
		return err
	}
	fmt.Printf("flow history synced: %d ok, %d failed, %d rows in %s\n",
		stats.Synced, stats.Failed, stats.Rows, stats.Duration)

	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	latest, err := flowRepo.LatestTradeDate(cmd.Context())
	if err == nil && !latest.IsZero() {
		fmt.Printf("latest trade date on record: %s\n", latest.Format("2006-01-02"))
	}
	return nil
}

func runCollectIndexes(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := newCollector(rt).SyncIndexes(cmd.Context()); err != nil {
		return err
	}

	indexRepo := storage.NewIndexSnapshotRepository(rt.db.Pool)
	quotes, err := indexRepo.List(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("index snapshots synced: %d\n", len(quotes))
	for _, q := range quotes {
		fmt.Printf("  %s %s  %.2f (%+.2f%%)\n", q.Secid, q.Name, q.Price, q.ChangePercent)
	}
	return nil
}

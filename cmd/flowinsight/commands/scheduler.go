package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flowinsight/internal/collector"
	"flowinsight/internal/external/eastmoney"
	"flowinsight/internal/health"
	"flowinsight/internal/recommend"
	"flowinsight/internal/scheduler"
	"flowinsight/internal/scheduler/jobs"
	"flowinsight/internal/storage"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the recurring sync and calculation jobs",
	RunE:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	stockRepo := storage.NewStockRepository(rt.db.Pool)
	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	scoreRepo := storage.NewHealthScoreRepository(rt.db.Pool)
	recRepo := storage.NewRecommendationRepository(rt.db.Pool)
	indexRepo := storage.NewIndexSnapshotRepository(rt.db.Pool)

	provider := eastmoney.NewClient(rt.cfg, rt.log)
	col := collector.New(provider, stockRepo, flowRepo, indexRepo, rt.log)
	scorer := health.New(flowRepo, scoreRepo, rt.log)
	recommender := recommend.New(flowRepo, recRepo, rt.log)

	sched := scheduler.New(rt.log)
	for _, job := range []scheduler.Job{
		jobs.NewStockListSyncJob(col, rt.log),
		jobs.NewFlowSyncJob(col, rt.log),
		jobs.NewIndexSyncJob(col, rt.log),
		jobs.NewRecommendationJob(recommender, recommend.DefaultWindowDays, recommend.DefaultLimit, rt.log),
		jobs.NewHealthRefreshJob(scorer, stockRepo, rt.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return err
		}
	}

	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	rt.log.WithField("signal", sig.String()).Info("shutdown signal received")

	sched.Stop()
	return nil
}

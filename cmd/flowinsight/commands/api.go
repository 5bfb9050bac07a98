package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flowinsight/internal/api"
	"flowinsight/internal/api/handlers"
	"flowinsight/internal/auth"
	"flowinsight/internal/collector"
	"flowinsight/internal/external/eastmoney"
	"flowinsight/internal/health"
	"flowinsight/internal/indicator"
	"flowinsight/internal/storage"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	RunE:  runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	stockRepo := storage.NewStockRepository(rt.db.Pool)
	flowRepo := storage.NewFlowRepository(rt.db.Pool)
	scoreRepo := storage.NewHealthScoreRepository(rt.db.Pool)
	recRepo := storage.NewRecommendationRepository(rt.db.Pool)
	indexRepo := storage.NewIndexSnapshotRepository(rt.db.Pool)
	userRepo := storage.NewUserRepository(rt.db.Pool)

	provider := eastmoney.NewClient(rt.cfg, rt.log)
	col := collector.New(provider, stockRepo, flowRepo, indexRepo, rt.log)
	authSvc := auth.New(userRepo, rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL, rt.log)
	scorer := health.New(flowRepo, scoreRepo, rt.log)
	indicators := indicator.New(rt.log)

	router := api.NewRouter(
		handlers.NewAuthHandler(authSvc, rt.log),
		handlers.NewStockHandler(stockRepo, flowRepo, scorer, indicators, rt.log),
		handlers.NewRealtimeHandler(provider, rt.log),
		handlers.NewRecommendationHandler(recRepo, rt.log),
		handlers.NewSyncHandler(col, rt.log),
		authSvc,
		rt.log,
	)
	server := api.NewServer(rt.cfg, rt.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		rt.log.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

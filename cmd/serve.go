package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camgrocer/config"
	"camgrocer/controller"
	"camgrocer/dao"
	"camgrocer/db"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/metrics"
	"camgrocer/pkg/notify"
	"camgrocer/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Opens the database, creates missing tables and serves the marketplace API.
Notifications go to NATS when NATS_URL is set and to the log otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Port))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return serve(ctx, a.cfg, a.logger, ln)
		},
	}
}

// serve runs the API on ln until ctx is cancelled, then shuts down
// gracefully. It owns ln.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, ln net.Listener) error {
	defer ln.Close()

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	var notifier notify.Notifier
	if cfg.NatsURL != "" {
		nn, err := notify.ConnectNATS(cfg.NatsURL, logger)
		if err != nil {
			return err
		}
		defer nn.Close()
		notifier = nn
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	m := metrics.New()
	userRepo := dao.NewUserRepository(conn)
	storeRepo := dao.NewStoreRepository(conn)
	productRepo := dao.NewProductRepository(conn)
	orderRepo := dao.NewOrderRepository(conn)

	deals := auth.NewDealSigner(cfg.JWTSecret, cfg.DealTTL)
	negotiations := usecase.NewNegotiationUsecase(productRepo, storeRepo, nil, deals, cfg.NegotiationIdle, m, logger)
	router := controller.NewRouter(controller.Options{
		Users:          usecase.NewUserUsecase(userRepo, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), notifier, logger),
		Stores:         usecase.NewStoreUsecase(storeRepo, userRepo, notifier, logger),
		Products:       usecase.NewProductUsecase(productRepo, storeRepo, userRepo, notifier, logger),
		Orders:         usecase.NewOrderUsecase(orderRepo, productRepo, storeRepo, userRepo, deals, notifier, m, logger),
		Negotiations:   negotiations,
		Metrics:        m,
		Logger:         logger,
		CORSOrigin:     cfg.CORSOrigin,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	negotiations.Start(gctx)

	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", ln.Addr().String()), zap.String("db", cfg.DBDriver))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	negotiations.Wait()
	return err
}

package cmd

import (
	"context"

	"camgrocer/config"
	"camgrocer/dao"
	"camgrocer/db"
	"camgrocer/pkg/auth"
	"camgrocer/pkg/notify"
	"camgrocer/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and seed the admin account",
		Long: `Creates the schema if it does not exist. When ADMIN_EMAIL is set, an admin
account with ADMIN_PASSWORD is created, or the existing account is promoted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), a.cfg, a.logger)
		},
	}
}

func migrate(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}
	logger.Info("schema up to date", zap.String("db", cfg.DBDriver))

	if cfg.AdminEmail == "" {
		return nil
	}
	users := usecase.NewUserUsecase(dao.NewUserRepository(conn), auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), notify.NewLogNotifier(logger), logger)
	admin, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	logger.Info("admin ready", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

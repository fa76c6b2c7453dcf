package main

import (
	"context"
	"fmt"
	"os"

	"leetlab/internal/app/service"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
	"leetlab/internal/platform/config"
	"leetlab/internal/platform/database"
	"leetlab/internal/platform/logger"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "leetlab-admin",
		Usage: "maintenance tasks for the leetlab backend",
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			config.Load()
			logger.Init(config.AppConfig.LogLevel, true)
			security.InitJWT()
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply the database schema",
				Action: migrate,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "first-name", Value: "Admin"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("admin command failed")
	}
}

func migrate(ctx context.Context, _ *cli.Command) error {
	db, err := database.Open(config.AppConfig.DBConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("schema applied")
	return nil
}

func createAdmin(ctx context.Context, cmd *cli.Command) error {
	db, err := database.Open(config.AppConfig.DBConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	// Registration never touches the token blocklist.
	auth := service.NewAuthService(repository.NewPgUserRepository(db), nil)
	resp, err := auth.RegisterAdmin(ctx, service.RegisterRequest{
		FirstName: cmd.String("first-name"),
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		Role:      model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("user_id", resp.User.ID).Str("email", resp.User.Email).Msg(resp.Message)
	return nil
}

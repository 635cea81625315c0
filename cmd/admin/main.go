package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/cityfix/internal/admin"
	"github.com/dmitrijs2005/cityfix/internal/flagx"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/config"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cityfix/internal/server/services"
)

func run(ctx context.Context, args []string) error {
	if _, _, err := admin.Command(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(flagx.FilterArgs(args[1:], admin.ConfigFlags))
	if err != nil {
		return err
	}

	algorithm, err := auth.ParseAlgorithm(cfg.PasswordAlgorithm)
	if err != nil {
		return err
	}

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	users := services.NewUserService(db, rm,
		auth.NewPasswordHasher(algorithm),
		auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenTTL),
		logging.New(cfg.LogLevel, cfg.LogFormat))

	return admin.Run(ctx, users, args, os.Stdout)
}

func main() {

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}

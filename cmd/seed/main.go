package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/seed"
	categorysvc "storefront/internal/service/category"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	deps := seed.Deps{
		Categories: categorysvc.New(categoryrepo.NewPostgres(pool)),
		Products:   productsvc.New(productrepo.NewPostgres(pool, logger)),
		Admins:     usersvc.New(userrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), cfg.TokenTTL, logger),
	}
	admin := seed.Admin{Email: cfg.AdminEmail, Password: cfg.AdminPassword}

	if err := seed.Apply(ctx, deps, admin, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}

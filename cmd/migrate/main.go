package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/migrations"
	"github.com/noah-isme/unitime-api/pkg/config"
	"github.com/noah-isme/unitime-api/pkg/database"
	"github.com/noah-isme/unitime-api/pkg/logger"
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: migrate [up|down|status]")
	}
	flag.Parse()

	command := database.MigrateUp
	if flag.NArg() > 0 {
		command = database.MigrationCommand(flag.Arg(0))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db.DB, migrations.FS, cfg.Database.MigrationsDir, command); err != nil {
		logr.Fatal("migration failed", zap.String("command", string(command)), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", string(command)))
}

package main

import (
	"marketd/api"
	"marketd/config"
	"marketd/internal/market"
	"marketd/logger"
	"marketd/pkg/ledger"
	"marketd/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// postgres
	db, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()

	// ledger daemon RPC client
	rpc := ledger.NewClient(
		cfg.Ledger.RPC.URL,
		cfg.Ledger.RPC.Username,
		cfg.Ledger.RPC.Password,
		cfg.Ledger.RPC.Timeout,
	)

	// ledger event feed; its state gates the API
	feed := ledger.NewFeed(cfg.Ledger.Feed.URL, log)
	if err := feed.Connect(); err != nil {
		log.Warn("initial feed connect failed, will retry", zap.Error(err))
	}
	go feed.Listen()

	service := market.NewService(db, rpc, cfg.Market.ProtocolAsset, cfg.Market.ChainAsset, log)

	handler := api.NewHandler(service, db, feed.State(), log)
	log.Info("starting api server",
		zap.String("host", cfg.API.Host),
		zap.Int("port", cfg.API.Port))
	if err := handler.StartServer(cfg.API.Host, cfg.API.Port); err != nil {
		log.Fatal("api server failed", zap.Error(err))
	}
}

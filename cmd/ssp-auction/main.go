// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/api"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/auction"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/config"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/log"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/metrics"
	"github.com/OmkarAla/SSP-Ad-Auction-Simulator/pkg/store"
)

var (
	port   = flag.String("port", "", "API server port (overrides PORT)")
	dbPath = flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	env    = flag.String("env", "", "Environment (overrides APP_ENV)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.New().Fatal("failed to load config", "error", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *env != "" {
		cfg.Env = *env
	}

	logger := log.NewWithLevel(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.SeedDefaultDSPs(ctx); err != nil {
		logger.Fatal("failed to seed dsps", "error", err)
	}

	m := metrics.New()
	engine := auction.NewEngine(st, st, logger, m)
	server := api.NewServer(engine, st, logger, m)
	router := server.Router(cfg.Env, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	logger.Info("auction server started", "port", cfg.Port, "env", cfg.Env, "db", cfg.DBPath)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

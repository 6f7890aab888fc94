package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/joho/godotenv"

	"gocausal/adapters/excel"
	"gocausal/adapters/postgres"
	"gocausal/app"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/ports"
	"gocausal/ui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		internal.NewDefaultLogger().Error("configuration: %v", err)
		os.Exit(1)
	}
	logger := internal.NewDefaultLogger()

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			logger.Error("connect database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			logger.Error("migrate: %v", err)
			os.Exit(1)
		}
		repo = postgres.NewRunRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, keeping runs in memory")
		repo = app.NewMemoryRunRepository()
	}

	if cfg.Profiling.Enabled {
		go func() {
			addr := "localhost:" + cfg.Profiling.Port
			logger.Info("pprof listening on %s", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Warn("pprof server stopped: %v", err)
			}
		}()
	}

	svc := app.NewDiscoveryService(excel.NewReader(), repo, logger, cfg.Search.MaxConcurrent)
	server, err := ui.NewServer(svc, logger, cfg.Server.GinMode)
	if err != nil {
		logger.Error("build server: %v", err)
		os.Exit(1)
	}
	if err := server.Run(cfg.Server.Port); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

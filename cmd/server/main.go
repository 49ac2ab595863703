package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openvalet/garage/internal/config"
	"github.com/openvalet/garage/internal/database"
	"github.com/openvalet/garage/internal/garage"
	"github.com/openvalet/garage/internal/handler"
	"github.com/openvalet/garage/internal/middleware"
	"github.com/openvalet/garage/internal/queue"
	mysqlrepo "github.com/openvalet/garage/internal/repository/mysql"
	"github.com/openvalet/garage/internal/router"
	"github.com/openvalet/garage/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	vehicles := mysqlrepo.NewVehicleRepo(db)
	sectors := mysqlrepo.NewSectorRepo(db)
	spots := mysqlrepo.NewSpotRepo(db)
	sessions := mysqlrepo.NewSessionRepo(db)
	events := mysqlrepo.NewEventRepo(db)
	revenues := mysqlrepo.NewRevenueRepo(db)

	parking := service.NewParkingService(vehicles, sectors, spots, sessions, events, revenues)

	// Settlement consumer appends closed-session messages to the audit log.
	// It reconnects on broker failures and never blocks startup.
	go func() {
		if err := queue.StartSettlementConsumer(); err != nil {
			log.Printf("settlement consumer stopped: %v", err)
		}
	}()

	// Import the garage topology before accepting webhooks.  A failed sync
	// is logged but not fatal: the topology already stored from a previous
	// run keeps the service usable.
	if cfg.SimulatorURL != "" {
		syncer := garage.NewSyncer(cfg.SimulatorURL, sectors, spots)
		if err := syncer.Run(context.Background()); err != nil {
			log.Printf("continuing without fresh topology: %v", err)
		}
	} else {
		log.Printf("GARAGE_SIMULATOR_URL not set, skipping topology sync")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// Redis is optional: when unreachable both middlewares pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	wh := handler.NewWebhookHandler(parking)
	sh := handler.NewStatusHandler(parking)
	router.RegisterRoutes(e, wh, sh)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

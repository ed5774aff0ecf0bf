package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"auction-backoffice/config"
	"auction-backoffice/database"
	auctionsapi "auction-backoffice/internal/api/auctions"
	routes "auction-backoffice/internal/app/http"
	"auction-backoffice/internal/infra/ai"
	"auction-backoffice/internal/infra/exchange"
	"auction-backoffice/internal/infra/images"
	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/jobs"
	"auction-backoffice/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()
	logging.Init(config.ENV)
	database.InitDB(config.DB_URL)

	disk := storage.NewDisk(config.STORAGE_ROOT)
	rates := exchange.NewService(config.EXCHANGE_API_KEY, config.EXCHANGE_API_URL, exchange.NewRateCache())

	extractor, err := ai.NewExtractor(config.AI_PROVIDER, config.AI_API_KEY, config.AI_API_URL, config.AI_MODEL, disk)
	if err != nil {
		logging.L().Fatal(err)
	}

	auctionsapi.Setup(rates, disk)

	sweeper := jobs.NewSweeper(database.DB, disk, config.RETENTION_DAYS)

	pool := jobs.NewPool(database.DB, config.WORKER_COUNT)
	pool.Register(jobs.NewDownloadImagesHandler(database.DB, images.NewFetcher(disk)))
	pool.Register(jobs.NewProcessAuctionHandler(database.DB, extractor))
	pool.Register(jobs.NewCleanupHandler(sweeper))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Nightly retention sweep at 02:00.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 2 * * *", func() {
		sweeper.Sweep(time.Now())
	}); err != nil {
		logging.L().Fatal(err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, config.STORAGE_ROOT)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(ctx)
	})
	g.Go(func() error {
		return r.Run(":" + config.PORT)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logging.L().Fatal(err)
	}
}

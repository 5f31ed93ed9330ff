package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ronospace/flowiq/internal/api"
	"github.com/ronospace/flowiq/internal/config"
	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Flow iQ API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	location := cfg.Location(logger)

	secretKey, err := cfg.EnsureSecretKey(logger)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	handler := api.New(database, api.Options{
		SecretKey:        []byte(secretKey),
		Location:         location,
		Logger:           logger,
		StatisticsWindow: cfg.Engine.StatisticsWindow,
		LutealPhaseDays:  cfg.Engine.LutealPhaseDays,
	})

	app := fiber.New(fiber.Config{
		AppName:               "Flow iQ",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())

	api.RegisterRoutes(app, handler)

	notifier := services.NewConsultationNotifier(
		handler.Repositories().Users,
		handler.Insights(),
		services.NotifierSettings{
			BotToken: cfg.Notifier.TelegramBotToken,
			Interval: cfg.Notifier.Interval,
		},
		logger,
	)
	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	notifier.Start(lifecycleCtx)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
		"db":   cfg.Database.Path,
		"tz":   location.String(),
	}).Info("flowiq listening")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

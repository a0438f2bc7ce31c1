package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bloem/config"
	"bloem/database"
	"bloem/gateway"
	"bloem/jobs"
	"bloem/ledger"
	"bloem/paycode"
	"bloem/routes"
	"bloem/settlement"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}
	setupLogging()

	database.Connect()
	cfg := config.Load()

	codes := paycode.New(database.DB, cfg.CodeTTL)
	points := ledger.New(database.DB)
	gw := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey)
	orch := settlement.New(database.DB, codes, points, gw, cfg)

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	app := fiber.New()
	routes.Setup(app, routes.Deps{
		Codes:        codes,
		Points:       points,
		Orchestrator: orch,
		Settings:     cfg,
	})
	jobs.StartCodeSweeper()

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Println("Server running at", addr)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Panicf("Failed to start server: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Gracefully shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited cleanly")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if file := os.Getenv("LOG_FILE"); file != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
}

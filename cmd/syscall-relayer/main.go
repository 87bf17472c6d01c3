package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/topstrike/syscall-relayer/internal/alert"
	"github.com/topstrike/syscall-relayer/internal/blockchain"
	"github.com/topstrike/syscall-relayer/internal/capability"
	"github.com/topstrike/syscall-relayer/internal/config"
	"github.com/topstrike/syscall-relayer/internal/gateway"
	"github.com/topstrike/syscall-relayer/internal/http_api"
	"github.com/topstrike/syscall-relayer/internal/models"
	"github.com/topstrike/syscall-relayer/internal/relay"
	"github.com/topstrike/syscall-relayer/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "syscall-relayer",
		Usage: "Payment-gated action relay: redeem on-chain payments for SMS and email delivery",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rpc-url", Aliases: []string{"r"}, Usage: "Blockchain RPC URL"},
			&cli.StringFlag{Name: "registry-address", Aliases: []string{"g"}, Usage: "Registry contract address"},
			&cli.StringFlag{Name: "relayer-key", Aliases: []string{"k"}, Usage: "Relayer private key (hex)"},
			&cli.StringFlag{Name: "token-secret", Aliases: []string{"s"}, Usage: "Capability token signing secret"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "API port"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("rpc-url") {
		cfg.RPCURL = c.String("rpc-url")
	}
	if c.IsSet("registry-address") {
		cfg.RegistryAddress = c.String("registry-address")
	}
	if c.IsSet("relayer-key") {
		cfg.RelayerKey = c.String("relayer-key")
	}
	if c.IsSet("token-secret") {
		cfg.TokenSecret = c.String("token-secret")
	}
	if c.IsSet("port") {
		cfg.APIPort = c.Int("port")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Initialize blockchain client
	chainClient := blockchain.NewClient(cfg.RPCURL, log, cfg)
	if err := chainClient.Run(); err != nil {
		return fmt.Errorf("failed to start blockchain client: %v", err)
	}
	defer chainClient.Close()

	// Initialize consumption writer
	writer, err := blockchain.NewConsumptionWriter(chainClient, log, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize consumption writer: %v", err)
	}

	// Initialize delivery gateway
	smsGateway := gateway.NewSMSGateway(log, cfg.SMSProviderURL, cfg.SMSProviderToken, cfg.SMSSender)
	emailGateway := gateway.NewEmailGateway(log, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
	deliveryGateway := gateway.NewGateway(log, smsGateway, emailGateway)

	// Initialize operator alerting, disabled unless configured
	var alerts models.AlertService
	if cfg.TelegramBotToken != "" && cfg.TelegramOpsChatID != "" {
		alerter, err := alert.NewTelegramAlerter(log, cfg.TelegramBotToken, cfg.TelegramOpsChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram alerter: %v", err)
		}
		alerts = alerter
	}

	// Initialize capability tokens
	tokens := capability.NewTokens(cfg.TokenSecret, time.Duration(cfg.TokenTTLSeconds)*time.Second)

	// Create Relay instance
	relayApp := relay.NewRelay(chainClient, writer, deliveryGateway, alerts, tokens, log, cfg)

	// Initialize API server
	apiServer := http_api.NewHTTPServer(relayApp, cfg.APIPort, cfg.RPCURL, log)
	go apiServer.Start()

	log.Infof(">>> SYSCALL RELAYER LISTENING ON PORT %d <<<", cfg.APIPort)
	log.Info("Connected to RPC: ", cfg.RPCURL)

	// Block until interrupted, then shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := apiServer.Shutdown(); err != nil {
		log.Error("Failed to shut down HTTP server: ", err)
	}

	return nil
}

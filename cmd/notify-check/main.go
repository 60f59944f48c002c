package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/config"
	"github.com/garyjia/societyhub/internal/container"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/pkg/utils"
)

// Sends one test message through every configured notification channel.
// Usage: notify-check [-config configs/config.yaml] [-channels log,lark,redis] <recipient email>

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	channels := flag.String("channels", "", "comma separated channel override (log, lark, redis)")
	flag.Parse()

	fmt.Println("=== SocietyHub Notification Check ===")
	fmt.Println()

	if flag.NArg() < 1 {
		fmt.Println("Usage: notify-check [-config path] [-channels log,lark,redis] <recipient email>")
		os.Exit(2)
	}
	recipient := utils.NormalizeEmail(flag.Arg(0))
	if err := utils.ValidateEmail(recipient); err != nil {
		log.Fatalf("Invalid recipient: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *channels != "" {
		cfg.Notify.Channels = strings.Split(*channels, ",")
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:   "debug",
		Format:  "console",
		Service: "notify-check",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Step 1: build the channels exactly as the server does
	fmt.Printf("[Step 1] Building channels: %s\n", strings.Join(cfg.Notify.Channels, ", "))
	bundle, err := container.ProvideChannels(ctx, &cfg.ToContainerConfig().Notification, logger)
	if err != nil {
		log.Fatalf("Failed to build notification channels: %v", err)
	}
	defer bundle.Close()

	// Step 2: send through each one
	msg := port.OutboundMessage{
		Type:      entity.NotificationTypeTransactionUpdate,
		Recipient: recipient,
		Subject:   "SocietyHub notification check",
		Body:      fmt.Sprintf("This is a test message sent at %s.", time.Now().Format(time.RFC3339)),
	}

	failed := 0
	for _, ch := range bundle.Channels {
		fmt.Printf("\n[Step 2] Sending via %s...\n", ch.Name())
		if err := ch.Send(ctx, msg); err != nil {
			failed++
			fmt.Printf("✗ %s failed: %v\n", ch.Name(), err)
			continue
		}
		fmt.Printf("✓ %s delivered\n", ch.Name())
	}

	fmt.Println("\n=== Check Complete ===")
	if failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"

	"github.com/lwatty24/fortniteshop.site/internal/config"
	"github.com/lwatty24/fortniteshop.site/internal/domain/task"
	"github.com/lwatty24/fortniteshop.site/internal/email"

	log "github.com/sirupsen/logrus"
)

// Sends one item alert with fixed sample items so the template and the
// delivery credentials can be checked without waiting for a real return.
func main() {
	recipient := flag.String("to", "", "recipient email address")
	flag.Parse()

	if *recipient == "" {
		log.Fatal("usage: testalert -to you@example.com")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	items := []task.AlertItem{
		{Name: "Renegade Raider", Price: 1200, Type: "Outfit", Rarity: "Rare"},
		{Name: "Raider's Revenge", Price: 1500, Type: "Harvesting Tool", Rarity: "Epic"},
		{Name: "Aerial Assault Trooper", Price: 1200, Type: "Outfit", Rarity: "Rare"},
	}

	sender := email.NewResendSender(cfg.Email)
	if err := sender.SendItemAlert(context.Background(), *recipient, items); err != nil {
		log.Fatalf("Failed to send test alert: %v", err)
	}

	log.Infof("📧 Test alert sent to %s", *recipient)
}

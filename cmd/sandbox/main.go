package main

import (
	"afribook/internal/sandbox"
	"afribook/pkg/app"
	"afribook/pkg/config"

	"github.com/joho/godotenv"
)

const ServiceName = "sandbox"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting bookings API sandbox")
	dir := sandbox.NewDirectory(0)
	for _, seed := range sandbox.DefaultSeed() {
		if err := dir.AddAgent(seed); err != nil {
			cfg.Log.Fatal("Failed to seed agent", "agent_id", seed.ID, "error", err)
		}
	}
	cfg.Log.Info("Sandbox directory seeded", "agents", len(sandbox.DefaultSeed()))

	app.NewSandboxApplication(cfg, dir).Run()
}

package app

import (
	"afribook/internal/sandbox"
	"afribook/pkg/config"
)

// NewSandboxApplication serves dir as a stand-in bookings API.
func NewSandboxApplication(cfg *config.Config, dir *sandbox.Directory) *Application {
	tokens := sandbox.NewTokenIssuer(cfg.Sandbox.JWTSecret, cfg.Sandbox.TokenTTL)

	application := NewApplication(cfg)
	application.SetApp(
		sandbox.NewHandler(dir, tokens, cfg.Log, cfg.Sandbox.MaxRequestSize),
		sandbox.NewHealthHandler(dir, cfg.Log),
	)
	return application
}

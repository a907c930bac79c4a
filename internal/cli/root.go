// Package cli implements the mamsctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mams/internal/app"
	"mams/internal/config"
	v1 "mams/internal/infrastructure/http/v1"
	"mams/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mamsctl",
	Short: "Operator tooling for the military asset management service",
	Long: `mamsctl manages a MAMS deployment from the command line.

It reads the same environment (and .env file) as the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root exposes the command tree, mainly for tests.
func Root() *cobra.Command {
	return rootCmd
}

// session is an opened store plus the services over it.
type session struct {
	cfg config.Config
	rt  *app.Runtime
	svc v1.Services
	ctx context.Context
}

func (s *session) Close() {
	s.rt.Close()
}

// loadConfig reads the environment without requiring settings only the
// server needs.
func loadConfig() (config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Development()})
}

// openSession opens the configured store. A memory store is seeded the way
// the server seeds it, so read commands have something to report.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogger(ctx, log)

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := app.NewServices(rt.Backend, app.Options{})
	if err != nil {
		rt.Close()
		return nil, err
	}
	if cfg.Store == config.StoreMemory {
		if _, err := app.Seed(ctx, svc, cfg.Development()); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return &session{cfg: cfg, rt: rt, svc: svc, ctx: ctx}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

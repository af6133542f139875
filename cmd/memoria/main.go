package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/menezmethod/memoria/internal/auth"
	"github.com/menezmethod/memoria/internal/config"
	"github.com/menezmethod/memoria/internal/logging"
	"github.com/menezmethod/memoria/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "memoria",
	Short: "A small password-protected notebook served over HTTP",
	Long: `memoria serves an HTML page listing short notes, shows any note
in full, and lets an authenticated user add new ones. Notes live in a
single JSON file that is rewritten on every change.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (optional, env vars work without it)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig resolves defaults -> YAML file -> env vars.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Log) *slog.Logger {
	logger := logging.NewLogger(os.Stdout, logging.ParseLevel(cfg.Level), cfg.Format, cfg.CloudFormat)
	slog.SetDefault(logger)
	return logger
}

// newVerifier uses a credential store when one is configured and the
// single username/password pair otherwise.
func newVerifier(cfg config.Auth, logger *slog.Logger) (auth.Verifier, error) {
	if cfg.CredentialsFile == "" && os.Getenv(auth.CredentialsEnv) == "" {
		logger.Info("using single-user credentials", "username", cfg.Username)
		return auth.NewStaticVerifier(cfg.Username, cfg.Password), nil
	}

	cs, err := auth.NewCredentialStore(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("credentials loaded", "count", cs.Count())
	return cs, nil
}

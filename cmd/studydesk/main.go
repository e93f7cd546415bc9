package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"studydesk/internal/client"
	"studydesk/internal/config"
	"studydesk/internal/logging"
	"studydesk/internal/storage"
	"studydesk/internal/store"
)

var (
	flagConfig string
	flagEnv    string
	flagLocal  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studydesk",
		Short: "Student task manager with smart task generation",
		Long: `studydesk keeps a student's tasks in Inbox, Today, Upcoming, Completed and
filtered views. Titles like "Essay due 3/15" are turned into dated, prioritised
tasks. Run "studydesk serve" for the task API and "studydesk tui" to work with it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $STUDYDESK_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", ".env", "Optional .env file loaded before STUDYDESK_* overrides")
	rootCmd.PersistentFlags().BoolVar(&flagLocal, "local", false, "Use the SQLite database directly instead of the task API")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves, loads and applies the environment to the config file.
func loadConfig() (config.Config, string, error) {
	path := flagConfig
	if path == "" {
		var err error
		if path, err = config.ResolveConfigPath(); err != nil {
			return config.Config{}, "", err
		}
	}
	cfg, created, err := config.Load(path, flagEnv)
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}
	if created {
		fmt.Fprintf(os.Stderr, "wrote default config to %s\n", path)
	}
	return cfg, path, nil
}

// initLogging sends logs to the configured file. requireFile forces a file
// next to the config when none is configured.
func initLogging(cfg config.Config, configPath, system string, requireFile bool) error {
	file := cfg.Log.File
	if file == "" && requireFile {
		file = filepath.Join(filepath.Dir(configPath), config.DefaultLogName)
	}
	return logging.Init(logging.Options{
		SystemName: system,
		File:       file,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

func clientTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.Client.TimeoutSeconds) * time.Second
}

// openBackend picks the store backend: the task API, or the SQLite file
// with --local. The returned func releases it.
func openBackend(cfg config.Config) (store.Backend, func(), error) {
	if flagLocal {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return db.For(cfg.User), func() { db.Close() }, nil
	}
	return client.New(cfg.Client.APIURL, cfg.Client.Token, clientTimeout(cfg)), func() {}, nil
}

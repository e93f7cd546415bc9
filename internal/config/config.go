package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "studydesk.db"
	DefaultLogName        = "studydesk.log"
	EnvConfigPath         = "STUDYDESK_CONFIG"
)

type Keymap struct {
	Quit            string `toml:"quit"`
	Add             string `toml:"add"`
	Generate        string `toml:"generate"`
	Up              string `toml:"up"`
	Down            string `toml:"down"`
	Toggle          string `toml:"toggle"`
	Delete          string `toml:"delete"`
	Edit            string `toml:"edit"`
	Suggest         string `toml:"suggest"`
	Confirm         string `toml:"confirm"`
	Cancel          string `toml:"cancel"`
	NextView        string `toml:"next_view"`
	PrevView        string `toml:"prev_view"`
	Refresh         string `toml:"refresh"`
	FilterPriority  string `toml:"filter_priority"`
	FilterCompleted string `toml:"filter_completed"`
	FilterDue       string `toml:"filter_due"`
	ClearFilter     string `toml:"clear_filter"`
}

type Server struct {
	Addr       string `toml:"addr"`
	JWTSecret  string `toml:"jwt_secret"`
	CORSOrigin string `toml:"cors_origin"`
}

type Client struct {
	APIURL         string `toml:"api_url"`
	Token          string `toml:"token"`
	DescribeURL    string `toml:"describe_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type Log struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type Inference struct {
	// FallbackDueDays puts undated generated tasks this many days out; 0 picks 1-7 at random.
	FallbackDueDays int `toml:"fallback_due_days"`
}

type Config struct {
	DBPath      string    `toml:"db_path"`
	DefaultView string    `toml:"default_view"`
	User        string    `toml:"user"`
	Server      Server    `toml:"server"`
	Client      Client    `toml:"client"`
	Log         Log       `toml:"log"`
	Inference   Inference `toml:"inference"`
	Keys        Keymap    `toml:"keys"`
}

// ResolveConfigPath returns $STUDYDESK_CONFIG, or config.toml under the
// user's config directory.
func ResolveConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "studydesk", DefaultConfigFileName), nil
}

// Load reads the config file, writing defaults on first launch, then applies
// .env files and STUDYDESK_* environment overrides.
func Load(path string, envFiles ...string) (Config, bool, error) {
	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		return cfg, created, err
	}
	if err := LoadEnv(envFiles...); err != nil {
		return cfg, created, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, created, err
	}
	return cfg, created, nil
}

// LoadOrCreate reads path, or writes the defaults there when it does not
// exist yet. The bool reports whether the file was created. Relative paths
// inside the file are resolved against its directory.
func LoadOrCreate(path string) (Config, bool, error) {
	cfg := Default()
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, false, err
		}
		created = true
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, false, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, false, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	base := filepath.Dir(path)
	cfg.DBPath = resolve(base, cfg.DBPath)
	if cfg.Log.File != "" {
		cfg.Log.File = resolve(base, cfg.Log.File)
	}
	return cfg, created, nil
}

// LoadEnv loads the given .env files into the process environment, skipping
// the ones that do not exist. Variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from STUDYDESK_* variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"STUDYDESK_DB_PATH":      &cfg.DBPath,
		"STUDYDESK_USER":         &cfg.User,
		"STUDYDESK_ADDR":         &cfg.Server.Addr,
		"STUDYDESK_JWT_SECRET":   &cfg.Server.JWTSecret,
		"STUDYDESK_CORS_ORIGIN":  &cfg.Server.CORSOrigin,
		"STUDYDESK_API_URL":      &cfg.Client.APIURL,
		"STUDYDESK_TOKEN":        &cfg.Client.Token,
		"STUDYDESK_DESCRIBE_URL": &cfg.Client.DescribeURL,
		"STUDYDESK_LOG_FILE":     &cfg.Log.File,
		"STUDYDESK_LOG_LEVEL":    &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("STUDYDESK_FALLBACK_DUE_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STUDYDESK_FALLBACK_DUE_DAYS: %w", err)
		}
		cfg.Inference.FallbackDueDays = n
	}
	return nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Default is the configuration written on first launch.
func Default() Config {
	return Config{
		DBPath:      DefaultDBName,
		DefaultView: "inbox",
		User:        "local",
		Server: Server{
			Addr:       "127.0.0.1:8080",
			CORSOrigin: "*",
		},
		Client: Client{
			APIURL:         "http://127.0.0.1:8080",
			TimeoutSeconds: 10,
		},
		Log: Log{
			File:       DefaultLogName,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Keys: Keymap{
			Quit:            "q",
			Add:             "a",
			Generate:        "g",
			Up:              "k",
			Down:            "j",
			Toggle:          " ",
			Delete:          "d",
			Edit:            "e",
			Suggest:         "ctrl+g",
			Confirm:         "enter",
			Cancel:          "esc",
			NextView:        "tab",
			PrevView:        "shift+tab",
			Refresh:         "r",
			FilterPriority:  "p",
			FilterCompleted: "c",
			FilterDue:       "f",
			ClearFilter:     "x",
		},
	}
}

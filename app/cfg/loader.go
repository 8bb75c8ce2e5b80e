package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./postline.db" description:"Path to the sqlite database file"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	PlatformsFile string `long:"platforms-file" env:"PLATFORMS_FILE" default:"./platforms.yml" description:"YAML file with per-platform publish endpoints"`

	// Dispatcher configuration
	WorkerCount      int `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent publish workers per dispatch cycle"`
	DispatchInterval int `long:"dispatch-interval" env:"DISPATCH_INTERVAL" default:"30" description:"Dispatch cycle interval in seconds"`
	DueBatchLimit    int `long:"due-batch-limit" env:"DUE_BATCH_LIMIT" default:"10" description:"Maximum due posts processed per dispatch cycle"`
	PublishTimeout   int `long:"publish-timeout" env:"PUBLISH_TIMEOUT" default:"15" description:"Per-publish-call timeout in seconds"`

	// Retry configuration
	RetryMaxAttempts int `long:"retry-max-attempts" env:"RETRY_MAX_ATTEMPTS" default:"3" description:"Maximum publish attempts before giving up"`
	RetryBaseDelay   int `long:"retry-base-delay" env:"RETRY_BASE_DELAY" default:"30" description:"Base retry backoff delay in seconds"`
	RetryMaxDelay    int `long:"retry-max-delay" env:"RETRY_MAX_DELAY" default:"3600" description:"Maximum retry backoff delay in seconds"`

	// Cache configuration
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for stats caching (optional)"`
	RedisTTL  int    `long:"redis-ttl" env:"REDIS_TTL" default:"60" description:"Stats cache TTL in seconds"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		Port:             raw.Port,
		APIAccessKey:     raw.APIAccessKey,
		PlatformsFile:    raw.PlatformsFile,
		WorkerCount:      raw.WorkerCount,
		DispatchInterval: raw.DispatchInterval,
		DueBatchLimit:    raw.DueBatchLimit,
		PublishTimeout:   raw.PublishTimeout,
		RetryMaxAttempts: raw.RetryMaxAttempts,
		RetryBaseDelay:   raw.RetryBaseDelay,
		RetryMaxDelay:    raw.RetryMaxDelay,
		RedisAddr:        raw.RedisAddr,
		RedisTTL:         raw.RedisTTL,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be > 0, got %d", cfg.WorkerCount)
	}
	if cfg.DispatchInterval <= 0 {
		return fmt.Errorf("dispatch interval must be > 0, got %d", cfg.DispatchInterval)
	}
	if cfg.DueBatchLimit <= 0 {
		return fmt.Errorf("due batch limit must be > 0, got %d", cfg.DueBatchLimit)
	}
	if cfg.RetryMaxAttempts < 0 {
		return fmt.Errorf("retry max attempts must be >= 0, got %d", cfg.RetryMaxAttempts)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

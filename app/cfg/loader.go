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
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"pricewatch_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"pricewatch_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"pricewatch" description:"Database name"`

	// Application configuration
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	SourceHost       string `long:"source-host" env:"SOURCE_HOST" default:"www.cashify.in" description:"Host of the supported product pages"`
	SourcePathPrefix string `long:"source-path-prefix" env:"SOURCE_PATH_PREFIX" default:"/buy-refurbished-mobile-phones" description:"Required path prefix for tracked product URLs"`
	SweepInterval    int    `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"3600" description:"Sweep interval in seconds"`
	StaleAfter       int    `long:"stale-after" env:"STALE_AFTER" default:"3600" description:"Re-check items whose last check is older than this many seconds"`
	ItemDelay        int    `long:"item-delay" env:"ITEM_DELAY" default:"2000" description:"Delay between item checks in milliseconds"`
	FetchTimeout     int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-page fetch timeout in seconds"`

	// SMTP configuration
	SmtpServer   string `long:"smtp-server" env:"SMTP_SERVER" default:"localhost" description:"SMTP server for notification emails"`
	SmtpPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SmtpAddress  string `long:"smtp-address" env:"SMTP_ADDRESS" description:"Sender email address for notifications"`
	SmtpPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP account password"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
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
		DBHost:           raw.DBHost,
		DBPort:           raw.DBPort,
		DBUser:           raw.DBUser,
		DBPassword:       raw.DBPassword,
		DBName:           raw.DBName,
		Port:             raw.Port,
		APIAccessKey:     raw.APIAccessKey,
		SourceHost:       raw.SourceHost,
		SourcePathPrefix: raw.SourcePathPrefix,
		SweepInterval:    raw.SweepInterval,
		StaleAfter:       raw.StaleAfter,
		ItemDelay:        raw.ItemDelay,
		FetchTimeout:     raw.FetchTimeout,
		SmtpServer:       raw.SmtpServer,
		SmtpPort:         raw.SmtpPort,
		SmtpAddress:      raw.SmtpAddress,
		SmtpPassword:     raw.SmtpPassword,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
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

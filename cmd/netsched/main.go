package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"netsched/internal/catalog"
	"netsched/internal/config"
	appLog "netsched/internal/log"
	"netsched/internal/schedule"
)

const version = "0.3.0"

// Root flag values.
var (
	configPath  string
	catalogPath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "netsched",
	Short: "netsched - amateur radio net schedule",
	Long: `netsched answers "which nets are on the air now, and which are coming up"
for a catalog of recurring amateur radio nets.

Nets recur weekly on one or more weekdays and may be limited to certain
weeks of the month ("1st & 3rd", "last", "except 2nd").`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (created with defaults if missing; empty uses built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to net catalog (overrides config; empty uses the embedded catalog)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is everything a command needs after startup.
type env struct {
	cfg      *config.Config
	loc      *time.Location
	catalog  *catalog.Catalog
	resolver *schedule.Resolver
}

// setup loads config and catalog, applying CLI overrides.
func setup() (*env, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	appLog.Debug("effective config",
		"config_path", configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"upcoming_limit", cfg.UpcomingLimit,
		"catalog", cfg.Catalog,
		"net_count", len(cat.Nets),
		"basic_auth", cfg.BasicAuth != nil,
	)

	return &env{
		cfg:      cfg,
		loc:      loc,
		catalog:  cat,
		resolver: schedule.New(cat.Nets),
	}, nil
}

// clock returns the wall-clock time in the configured zone, or the --at
// override converted into that zone.
func (e *env) clock(at string) (time.Time, error) {
	if at == "" {
		return time.Now().In(e.loc), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t.In(e.loc), nil
}

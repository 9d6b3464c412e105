package commands

import (
	"context"
	"fmt"
	"os"

	"gymnasier-export/internal/config"
	"gymnasier-export/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath *string
	envFile    *string
	verbose    *bool

	origin      *string
	output      *string
	schoolLimit *int
	metricsFile *string
	dumpHttpDir *string
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultPath, "The config file to read, a .local sibling overrides it.")
	envFile = rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "A KEY=value file that may hold RESROBOT_API_KEY.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug lines.")

	origin = rootCmd.Flags().String("origin", config.DefaultOrigin, "Starting point for travel time calculations.")
	output = rootCmd.Flags().String("output", config.DefaultOutput, "Output file, .db/.sqlite/.sqlite3 write a SQLite database, anything else CSV.")
	schoolLimit = rootCmd.Flags().Int("limit", 0, "Only export the first n schools (for testing), 0 exports all.")
	metricsFile = rootCmd.Flags().String("metrics-file", "", "Write prometheus metrics of the run to this file.")
	dumpHttpDir = rootCmd.Flags().String("dump-http", "", "Dump every upstream request and response into this directory.")
}

var rootCmd = &cobra.Command{
	Use:   "gymnasier-export [--origin <place>] [--output <path>] [--limit <n>]",
	Short: "Exports Stockholm high schools with admission statistics and travel times.",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, *verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			fatal("failed to load config", err)
		}
		err = cfg.Validate()
		if err != nil {
			fatal("failed to validate config", err)
		}

		shutdown, err := telemetry.SetupTracing(cmd.Context(), "gymnasier-export", cfg.Telemetry.Otlp)
		if err != nil {
			fatal("failed to setup tracing", err)
		}

		result, err := runExport(cmd.Context(), cfg, telemetry.SlogAPI{})
		shutdown(context.Background())
		if err != nil {
			fatal("export failed", err)
		}
		renderSummary(os.Stderr, result)
	},
}

// loadConfig reads the config file and applies the flags that were set on
// the command line on top of it.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("origin") {
		cfg.Origin = *origin
	}
	if flags.Changed("output") {
		cfg.Output = *output
	}
	if flags.Changed("limit") {
		cfg.SchoolLimit = *schoolLimit
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = *metricsFile
	}
	if flags.Changed("dump-http") {
		cfg.Telemetry.DumpHttpDir = *dumpHttpDir
	}
	return cfg, nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

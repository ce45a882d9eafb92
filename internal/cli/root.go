package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chainscope/internal/agents"
	"chainscope/internal/analysis"
	"chainscope/internal/config"
	"chainscope/internal/logging"
	"chainscope/internal/marketdata"
	"chainscope/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-08-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider marketdata.Provider
	Store    store.DataStore
	Service  *analysis.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Provider = marketdata.NewFinnhubClient(cfg.Credentials.Finnhub.APIKey, logger)
	app.Service = analysis.NewService(app.Provider, cfg, logger)

	dbPath := config.DefaultConfigDir() + "/chainscope.db"
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, snapshots unavailable")
	} else {
		app.Store = dataStore
		app.Service.WithStore(dataStore)
		logger.Debug().Msg("SQLite store initialized")
	}

	if cfg.AI.Enabled && cfg.Credentials.OpenAI.APIKey != "" {
		llm := agents.NewOpenAIClient(cfg.Credentials.OpenAI.APIKey, cfg.AI.Model)
		app.Service.WithInsight(agents.NewInsightGenerator(llm, logger))
		logger.Debug().Str("model", cfg.AI.Model).Msg("OpenAI LLM client initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "chainscope",
		Short: "Options chain risk and vehicle-selection analysis",
		Long: `Chainscope analyzes options chains for risk signals and recommends the
trade vehicle (stock, single option, or vertical spread) for a setup.

It fetches live chains from Finnhub, runs rule-based risk checks, evaluates
spread economics, and can enrich spread trades with an AI assessment.

Use 'chainscope help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/chainscope)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newRiskCmd(app))
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newVehicleCmd(app))
	rootCmd.AddCommand(newSpreadCmd(app))
	rootCmd.AddCommand(newCompareCmd(app))
	rootCmd.AddCommand(newSnapshotsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("chainscope v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Listen:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	output.Println()

	output.Bold("Analysis Thresholds")
	output.Printf("  Min Volume:      %d\n", cfg.Analysis.DefaultMinVolume)
	output.Printf("  Top Strikes:     %d\n", cfg.Analysis.TopStrikesLimit)
	output.Printf("  Min DTE:         %d\n", cfg.Analysis.DefaultMinDTE)
	output.Printf("  IV High/Low:     %.0f%% / %.0f%%\n", cfg.Analysis.IVHighThreshold, cfg.Analysis.IVLowThreshold)
	output.Printf("  PCR Bear/Bull:   %.2f / %.2f\n", cfg.Analysis.PCRBearishThreshold, cfg.Analysis.PCRBullishThreshold)
	output.Println()

	output.Bold("Vehicle Selection")
	output.Printf("  Min Move:        %.1f%%\n", cfg.Vehicle.MinExpectedMove)
	output.Printf("  Swing DTE:       %d-%d\n", cfg.Vehicle.SwingMinDTE, cfg.Vehicle.SwingMaxDTE)
	output.Printf("  ATR Period:      %d\n", cfg.Vehicle.ATRPeriod)
	output.Printf("  Vol Low/High:    %.1f%% / %.1f%%\n", cfg.Vehicle.VolatilityLowPct, cfg.Vehicle.VolatilityHighPct)
	output.Println()

	output.Bold("AI Enrichment")
	output.Printf("  Enabled:         %v\n", cfg.AI.Enabled)
	output.Printf("  Model:           %s\n", cfg.AI.Model)
}

// Package config provides configuration management for the analysis service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"chainscope/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Vehicle     VehicleConfig   `mapstructure:"vehicle"`
	UI          UIConfig        `mapstructure:"ui"`
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
	AI          AIConfig        `mapstructure:"ai"`
}

// ServerConfig holds REST server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AnalysisConfig holds chain analysis and risk assessment thresholds.
type AnalysisConfig struct {
	DefaultMinVolume  int `mapstructure:"default_min_volume"`
	TopStrikesLimit   int `mapstructure:"top_strikes_limit"`
	MaxExpirations    int `mapstructure:"max_expirations_returned"`
	DefaultMinDTE     int `mapstructure:"default_min_dte"`
	SummaryMinDTE     int `mapstructure:"summary_min_dte"`
	SpreadMinDTE      int `mapstructure:"spread_min_dte"`

	IVHighThreshold     float64 `mapstructure:"iv_high_threshold"`
	IVLowThreshold      float64 `mapstructure:"iv_low_threshold"`
	PCRBearishThreshold float64 `mapstructure:"pcr_bearish_threshold"`
	PCRBullishThreshold float64 `mapstructure:"pcr_bullish_threshold"`
	LiquidityWarning    int     `mapstructure:"liquidity_warning_contracts"`
	DTEShortWarning     int     `mapstructure:"dte_short_warning"`
	DTELongOpportunity  int     `mapstructure:"dte_long_opportunity"`
	OIConcentration     float64 `mapstructure:"oi_concentration_warning"`
	IVSkewSignificant   float64 `mapstructure:"iv_skew_significant"`
	UnusualVolumeRatio  float64 `mapstructure:"unusual_volume_ratio"`
}

// VehicleConfig holds vehicle selection and volatility regime thresholds.
type VehicleConfig struct {
	MinExpectedMove   float64 `mapstructure:"min_expected_move"`
	SwingMinDTE       int     `mapstructure:"swing_min_dte"`
	SwingMaxDTE       int     `mapstructure:"swing_max_dte"`
	CallDeltaMin      float64 `mapstructure:"call_delta_min"`
	CallDeltaMax      float64 `mapstructure:"call_delta_max"`
	PutDeltaMin       float64 `mapstructure:"put_delta_min"`
	PutDeltaMax       float64 `mapstructure:"put_delta_max"`
	ATRPeriod         int     `mapstructure:"atr_period"`
	VolatilityLowPct  float64 `mapstructure:"volatility_low_pct"`
	VolatilityHighPct float64 `mapstructure:"volatility_high_pct"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// AIConfig holds LLM enrichment configuration.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// Credentials holds API credentials.
type Credentials struct {
	Finnhub FinnhubCredentials `mapstructure:"finnhub"`
	OpenAI  OpenAICredentials  `mapstructure:"openai"`
}

// FinnhubCredentials holds the market data provider API key.
type FinnhubCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chainscope"
	}
	return filepath.Join(home, ".config", "chainscope")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setAnalysisDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setAnalysisDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("analysis.default_min_volume", 75)
	v.SetDefault("analysis.top_strikes_limit", 5)
	v.SetDefault("analysis.max_expirations_returned", 10)
	v.SetDefault("analysis.default_min_dte", 7)
	v.SetDefault("analysis.summary_min_dte", 1)
	v.SetDefault("analysis.spread_min_dte", 1)
	v.SetDefault("analysis.iv_high_threshold", 60.0)
	v.SetDefault("analysis.iv_low_threshold", 20.0)
	v.SetDefault("analysis.pcr_bearish_threshold", 1.5)
	v.SetDefault("analysis.pcr_bullish_threshold", 0.7)
	v.SetDefault("analysis.liquidity_warning_contracts", 5)
	v.SetDefault("analysis.dte_short_warning", 7)
	v.SetDefault("analysis.dte_long_opportunity", 60)
	v.SetDefault("analysis.oi_concentration_warning", 0.30)
	v.SetDefault("analysis.iv_skew_significant", 10.0)
	v.SetDefault("analysis.unusual_volume_ratio", 3.0)

	v.SetDefault("vehicle.min_expected_move", 3.0)
	v.SetDefault("vehicle.swing_min_dte", 30)
	v.SetDefault("vehicle.swing_max_dte", 45)
	v.SetDefault("vehicle.call_delta_min", 0.40)
	v.SetDefault("vehicle.call_delta_max", 0.60)
	v.SetDefault("vehicle.put_delta_min", -0.60)
	v.SetDefault("vehicle.put_delta_max", -0.40)
	v.SetDefault("vehicle.atr_period", 14)
	v.SetDefault("vehicle.volatility_low_pct", 1.5)
	v.SetDefault("vehicle.volatility_high_pct", 3.0)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gpt-4o")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Credentials.Finnhub.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("CHAINSCOPE_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port must be between 1 and 65535", errors.ErrConfigInvalid)
	}
	if c.Analysis.DefaultMinVolume < 1 {
		return fmt.Errorf("%w: default_min_volume must be at least 1", errors.ErrConfigInvalid)
	}
	if c.Analysis.TopStrikesLimit < 1 {
		return fmt.Errorf("%w: top_strikes_limit must be at least 1", errors.ErrConfigInvalid)
	}
	if c.Analysis.DefaultMinDTE < 0 {
		return fmt.Errorf("%w: default_min_dte must be non-negative", errors.ErrConfigInvalid)
	}
	if c.Analysis.IVLowThreshold >= c.Analysis.IVHighThreshold {
		return fmt.Errorf("%w: iv_low_threshold must be below iv_high_threshold", errors.ErrConfigInvalid)
	}
	if c.Vehicle.SwingMinDTE > c.Vehicle.SwingMaxDTE {
		return fmt.Errorf("%w: swing_min_dte must not exceed swing_max_dte", errors.ErrConfigInvalid)
	}
	if c.Vehicle.ATRPeriod < 1 {
		return fmt.Errorf("%w: atr_period must be at least 1", errors.ErrConfigInvalid)
	}
	if c.Vehicle.VolatilityLowPct >= c.Vehicle.VolatilityHighPct {
		return fmt.Errorf("%w: volatility_low_pct must be below volatility_high_pct", errors.ErrConfigInvalid)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Chainscope Configuration

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "15s"
write_timeout = "30s"
shutdown_timeout = "10s"

[analysis]
# Minimum volume for a contract to count as liquid
default_min_volume = 75
# Top strikes returned per ranking category
top_strikes_limit = 5
# Maximum expirations listed in a risk response
max_expirations_returned = 10
# Minimum DTE for auto-selected expirations (0 allows same-day expiry)
default_min_dte = 7
summary_min_dte = 1
spread_min_dte = 1

# IV thresholds, percentage points
iv_high_threshold = 60.0
iv_low_threshold = 20.0

# Put/Call volume ratio thresholds
pcr_bearish_threshold = 1.5
pcr_bullish_threshold = 0.7

# Liquid contract floor before a wide-spread warning fires
liquidity_warning_contracts = 5

# DTE thresholds
dte_short_warning = 7
dte_long_opportunity = 60

# Single-strike OI share that triggers a pin risk warning
oi_concentration_warning = 0.30
# ATM put/call IV gap in percentage points considered a significant skew
iv_skew_significant = 10.0
# Volume vs open interest ratio suggesting new positioning
unusual_volume_ratio = 3.0

[vehicle]
# Minimum expected % move before options are considered
min_expected_move = 3.0
# DTE range for swing trade options
swing_min_dte = 30
swing_max_dte = 45
# Delta ranges for directional options
call_delta_min = 0.40
call_delta_max = 0.60
put_delta_min = -0.60
put_delta_max = -0.40
# Volatility regime: ATR as % of price
atr_period = 14
volatility_low_pct = 1.5
volatility_high_pct = 3.0

[ui]
color_enabled = true
date_format = "2006-01-02"

[ai]
# Enable LLM enrichment of spread trade analysis
enabled = true
model = "gpt-4o"
`

const credentialsTemplate = `# Chainscope Credentials
# Env vars FINNHUB_API_KEY / OPENAI_API_KEY override these values.

[finnhub]
api_key = ""

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Credentials are sensitive; restrict permissions.
	return os.WriteFile(path, []byte(credentialsTemplate), 0600)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"IndexForecaster/internal/model"
)

// HorizonConfig is the file shape of a forecast horizon.
type HorizonConfig struct {
	Label     string `yaml:"label" toml:"label"`
	Periods   int    `yaml:"periods" toml:"periods"`
	Frequency string `yaml:"frequency" toml:"frequency"`
}

// Config holds all application configuration.
type Config struct {
	Series     []model.SeriesSpec `yaml:"series" toml:"series"`
	DataSource struct {
		Provider string `yaml:"provider" toml:"provider"`
		Lookback string `yaml:"lookback" toml:"lookback"`
	} `yaml:"data_source" toml:"data_source"`
	Paths struct {
		DataDir   string `yaml:"data_dir" toml:"data_dir"`
		OutputDir string `yaml:"output_dir" toml:"output_dir"`
	} `yaml:"paths" toml:"paths"`
	Forecast struct {
		ShortTerm        HorizonConfig `yaml:"short_term" toml:"short_term"`
		LongTerm         HorizonConfig `yaml:"long_term" toml:"long_term"`
		IntervalWidth    float64       `yaml:"interval_width" toml:"interval_width"`
		DailySeasonality *bool         `yaml:"daily_seasonality" toml:"daily_seasonality"`
	} `yaml:"forecast" toml:"forecast"`
	Report struct {
		Title    string `yaml:"title" toml:"title"`
		Currency string `yaml:"currency" toml:"currency"`
	} `yaml:"report" toml:"report"`
	Logging struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"logging" toml:"logging"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Schedule struct {
		Cron string `yaml:"cron" toml:"cron"`
	} `yaml:"schedule" toml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from a YAML (or .toml) file, then applies environment variable overrides.
// A missing file is not an error: defaults describe the standard two-index run.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FORECASTER_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("FORECASTER_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
	}
	if v := os.Getenv("FORECASTER_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("FORECASTER_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

// unmarshal picks the decoder from the file extension; YAML is the default.
func unmarshal(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyDefaults() {
	if len(c.Series) == 0 {
		c.Series = []model.SeriesSpec{
			{Name: "NIFTY 50", Symbol: "^NSEI"},
			{Name: "NIFTY BANK", Symbol: "^NSEBANK"},
		}
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Lookback == "" {
		c.DataSource.Lookback = "5y"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "outputs"
	}
	if c.Forecast.ShortTerm == (HorizonConfig{}) {
		c.Forecast.ShortTerm = HorizonConfig{Label: "ShortTerm", Periods: 90, Frequency: "daily"}
	}
	if c.Forecast.LongTerm == (HorizonConfig{}) {
		c.Forecast.LongTerm = HorizonConfig{Label: "LongTerm", Periods: 156, Frequency: "weekly"}
	}
	if c.Forecast.IntervalWidth == 0 {
		c.Forecast.IntervalWidth = 0.8
	}
	if c.Forecast.DailySeasonality == nil {
		on := true
		c.Forecast.DailySeasonality = &on
	}
	if c.Report.Title == "" {
		c.Report.Title = "LASA FINANCIAL SERVICES — Forecast Report"
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "₹"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 18 * * 1-5"
	}
}

// ShortTerm returns the parsed short-term horizon.
func (c *Config) ShortTerm() (model.Horizon, error) {
	return c.Forecast.ShortTerm.horizon()
}

// LongTerm returns the parsed long-term horizon.
func (c *Config) LongTerm() (model.Horizon, error) {
	return c.Forecast.LongTerm.horizon()
}

func (h HorizonConfig) horizon() (model.Horizon, error) {
	freq, err := model.ParseFrequency(h.Frequency)
	if err != nil {
		return model.Horizon{}, fmt.Errorf("horizon %s: %w", h.Label, err)
	}
	return model.Horizon{Label: h.Label, Periods: h.Periods, Frequency: freq}, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("series: at least one entry is required")
	}
	seen := make(map[string]bool, len(c.Series))
	for i, s := range c.Series {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("series[%d].name is required", i)
		}
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("series[%d].symbol is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("series[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	switch c.DataSource.Provider {
	case "yahoo", "financego", "mock":
	default:
		return fmt.Errorf("data_source.provider must be one of yahoo, financego, mock")
	}
	for _, h := range []HorizonConfig{c.Forecast.ShortTerm, c.Forecast.LongTerm} {
		if h.Label == "" {
			return fmt.Errorf("forecast horizon label is required")
		}
		if h.Periods <= 0 {
			return fmt.Errorf("forecast.%s.periods must be positive", h.Label)
		}
		if _, err := model.ParseFrequency(h.Frequency); err != nil {
			return fmt.Errorf("forecast.%s: %w", h.Label, err)
		}
	}
	if c.Forecast.ShortTerm.Label == c.Forecast.LongTerm.Label {
		return fmt.Errorf("forecast horizons must have distinct labels")
	}
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		return fmt.Errorf("forecast.interval_width must be in (0, 1)")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

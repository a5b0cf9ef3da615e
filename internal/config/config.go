package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CoinCast/internal/strategy"
)

// Config holds all application configuration. Zero fields are filled from
// the default tags after environment overrides are applied.
type Config struct {
	Assets     []string `yaml:"assets" default:"[\"bitcoin\",\"ethereum\"]" validate:"min=1,dive,required"`
	DataSource struct {
		Provider       string  `yaml:"provider" default:"coingecko" validate:"oneof=coingecko mock"`
		BaseURL        string  `yaml:"base_url" validate:"omitempty,url"`
		APIKey         string  `yaml:"api_key"`
		VsCurrency     string  `yaml:"vs_currency" default:"usd"`
		RequestsPerMin int     `yaml:"requests_per_min" default:"10" validate:"gt=0"`
		MockPrice      float64 `yaml:"mock_price" default:"100" validate:"gt=0"`
	} `yaml:"data_source"`
	Analysis struct {
		Cron        string `yaml:"cron" default:"0 5 * * * *" validate:"cron"`
		Workers     int    `yaml:"workers" default:"4" validate:"gt=0"`
		MinBars     int    `yaml:"min_bars" default:"50" validate:"gte=50"`
		HistoryDays int    `yaml:"history_days" default:"30" validate:"gt=0"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"analysis"`
	Accuracy struct {
		Cron       string `yaml:"cron" default:"0 */15 * * * *" validate:"cron"`
		WindowDays int    `yaml:"window_days" default:"30" validate:"gt=0"`
	} `yaml:"accuracy"`
	Weights  strategy.Weights `yaml:"weights"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/coincast.db"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Data source providers.
const (
	ProviderCoinGecko = "coingecko"
	ProviderMock      = "mock"
)

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	// Asset ids are CoinGecko ids, which are lowercase.
	for i, a := range cfg.Assets {
		cfg.Assets[i] = strings.ToLower(strings.TrimSpace(a))
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ASSETS"); v != "" {
		c.Assets = splitList(v)
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		c.Analysis.Cron = v
	}
	if v := os.Getenv("CRON_ACCURACY"); v != "" {
		c.Accuracy.Cron = v
	}
	if v := os.Getenv("ANALYSIS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.Workers = n
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Analysis.RunOnStart = b
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() error {
	// Weights default as a whole so a partial table keeps its zeros.
	if c.Weights == (strategy.Weights{}) {
		c.Weights = strategy.DefaultWeights()
	}
	return defaults.Set(c)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := parser.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return fieldError(fields[0])
		}
		return err
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Errorf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value())
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

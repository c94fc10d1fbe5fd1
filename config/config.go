package config

import (
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// Config holds every run-time parameter. It is built once in main and passed down by value.
type Config struct {
	// Threshold
	RatioLow        float64
	RatioHigh       float64
	MarketCap       float64
	MinOpenInterest float64
	Cooldown        time.Duration
	MaxSymbols      int

	// Exchange
	BinanceBaseURL string
	Period         string
	RequestDelay   time.Duration
	HTTPTimeout    time.Duration

	// Telegram
	TelegramToken    string
	TelegramChatID   string
	TelegramEndpoint string

	// State
	StateBackend string
	StateFile    string
	StateDB      string

	// Text
	Lang       string
	LocalesDir string

	// Metrics
	MetricsTextfile string
	PushgatewayURL  string

	DryRun   bool
	Debug    bool
	LogLevel string
}

// BindEnv registers environment bindings and defaults on v
func BindEnv(v *viper.Viper) {
	v.AutomaticEnv()

	v.BindEnv("ratio_low", "RATIO_LOW")
	v.BindEnv("ratio_high", "RATIO_HIGH")
	v.BindEnv("min_mcap", "MIN_MCAP")
	v.BindEnv("min_oi", "MIN_OI")
	v.BindEnv("sleep_sec", "SLEEP_SEC")
	v.BindEnv("cooldown_minutes", "COOLDOWN_MINUTES")
	v.BindEnv("max_symbols", "MAX_SYMBOLS")
	v.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
	v.BindEnv("telegram_api_endpoint", "TELEGRAM_API_ENDPOINT")
	v.BindEnv("binance_base_url", "BINANCE_BASE_URL")
	v.BindEnv("oi_period", "OI_PERIOD")
	v.BindEnv("http_timeout_sec", "HTTP_TIMEOUT_SEC")
	v.BindEnv("state_backend", "STATE_BACKEND")
	v.BindEnv("state_file", "STATE_FILE")
	v.BindEnv("state_db", "STATE_DB")
	v.BindEnv("digest_lang", "DIGEST_LANG")
	v.BindEnv("locales_dir", "LOCALES_DIR")
	v.BindEnv("dry_run", "DRY_RUN")
	v.BindEnv("metrics_textfile", "METRICS_TEXTFILE")
	v.BindEnv("pushgateway_url", "PUSHGATEWAY_URL")
	v.BindEnv("debug", "DEBUG")
	v.BindEnv("log_level", "LOG_LEVEL")

	v.SetDefault("ratio_low", 0.98)
	v.SetDefault("ratio_high", 1.02)
	v.SetDefault("min_mcap", 5_000_000)
	v.SetDefault("min_oi", 5_000_000)
	v.SetDefault("sleep_sec", 0.05)
	v.SetDefault("cooldown_minutes", 60)
	v.SetDefault("max_symbols", 0)
	v.SetDefault("telegram_api_endpoint", tgbotapi.APIEndpoint)
	v.SetDefault("binance_base_url", "https://fapi.binance.com")
	v.SetDefault("oi_period", "5m")
	v.SetDefault("http_timeout_sec", 15)
	v.SetDefault("state_backend", StateBackendFile)
	v.SetDefault("state_file", "state.json")
	v.SetDefault("state_db", "state.db")
	v.SetDefault("digest_lang", "zh")
	v.SetDefault("locales_dir", "locales")
	v.SetDefault("dry_run", false)
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
}

// LoadDotEnv reads a .env file into the process environment if one exists
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Debug("no .env file found, reading from environment directly")
	}
}

// Load reads the configuration from v. BindEnv must have been called on v.
func Load(v *viper.Viper) (Config, error) {
	r := &reader{v: v}
	cfg := Config{
		RatioLow:        r.float("ratio_low"),
		RatioHigh:       r.float("ratio_high"),
		MarketCap:       r.float("min_mcap"),
		MinOpenInterest: r.float("min_oi"),
		Cooldown:        time.Duration(r.int("cooldown_minutes")) * time.Minute,
		MaxSymbols:      r.int("max_symbols"),

		BinanceBaseURL: v.GetString("binance_base_url"),
		Period:         v.GetString("oi_period"),
		RequestDelay:   time.Duration(r.float("sleep_sec") * float64(time.Second)),
		HTTPTimeout:    time.Duration(r.int("http_timeout_sec")) * time.Second,

		TelegramToken:    strings.TrimSpace(v.GetString("telegram_bot_token")),
		TelegramChatID:   strings.TrimSpace(v.GetString("telegram_chat_id")),
		TelegramEndpoint: v.GetString("telegram_api_endpoint"),

		StateBackend: v.GetString("state_backend"),
		StateFile:    v.GetString("state_file"),
		StateDB:      v.GetString("state_db"),

		Lang:       v.GetString("digest_lang"),
		LocalesDir: v.GetString("locales_dir"),

		MetricsTextfile: v.GetString("metrics_textfile"),
		PushgatewayURL:  v.GetString("pushgateway_url"),

		DryRun:   r.bool("dry_run"),
		Debug:    r.bool("debug"),
		LogLevel: v.GetString("log_level"),
	}

	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// reader converts viper values strictly and keeps the first failure,
// where viper's getters would turn a malformed value into zero
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) float(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	r.fail(key, err)
	return f
}

func (r *reader) int(key string) int {
	i, err := cast.ToIntE(r.v.Get(key))
	r.fail(key, err)
	return i
}

func (r *reader) bool(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	r.fail(key, err)
	return b
}

func (r *reader) fail(key string, err error) {
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "invalid value for %s", key)
	}
}

// Validate checks the values that would make a run meaningless
func (c Config) Validate() error {
	switch {
	case c.RatioLow > c.RatioHigh:
		return errors.Errorf("ratio_low %.4f is above ratio_high %.4f", c.RatioLow, c.RatioHigh)
	case c.MarketCap <= 0:
		return errors.Errorf("min_mcap must be positive, got %f", c.MarketCap)
	case c.RequestDelay < 0:
		return errors.Errorf("sleep_sec must not be negative, got %s", c.RequestDelay)
	case c.Cooldown < 0:
		return errors.Errorf("cooldown_minutes must not be negative, got %s", c.Cooldown)
	case c.MaxSymbols < 0:
		return errors.Errorf("max_symbols must not be negative, got %d", c.MaxSymbols)
	case c.HTTPTimeout <= 0:
		return errors.Errorf("http_timeout_sec must be positive, got %s", c.HTTPTimeout)
	case c.Period == "":
		return errors.New("oi_period must not be empty")
	}

	switch c.StateBackend {
	case StateBackendFile, StateBackendSQLite:
	default:
		return errors.Errorf("unknown state_backend %q", c.StateBackend)
	}
	return nil
}

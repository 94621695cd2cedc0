package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Yemot struct {
		Username   string `yaml:"username" env:"YEMOT_USERNAME"`
		Password   string `yaml:"password" env:"YEMOT_PASSWORD"`
		Token      string `yaml:"token" env:"YEMOT_TOKEN"`
		UploadURL  string `yaml:"upload_url" env:"YEMOT_UPLOAD_URL"`
		TargetPath string `yaml:"target_path" env:"YEMOT_TARGET_PATH"`
		FileName   string `yaml:"file_name" env:"YEMOT_FILE_NAME"`
		MaxRetries int    `yaml:"max_retries" env:"YEMOT_MAX_RETRIES"`
	} `yaml:"yemot"`
	Speech struct {
		Region       string `yaml:"region" env:"AZURE_SPEECH_REGION"`
		Key          string `yaml:"key" env:"AZURE_SPEECH_KEY"`
		Endpoint     string `yaml:"endpoint" env:"AZURE_SPEECH_ENDPOINT"`
		Voice        string `yaml:"voice" env:"SPEECH_VOICE"`
		OutputFormat string `yaml:"output_format" env:"SPEECH_OUTPUT_FORMAT"`
	} `yaml:"speech"`
	Audio struct {
		FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
		SampleRate int    `yaml:"sample_rate" env:"AUDIO_SAMPLE_RATE"`
	} `yaml:"audio"`
	DataSource struct {
		Provider  string  `yaml:"provider" env:"DATA_PROVIDER"`
		BaseURL   string  `yaml:"base_url" env:"DATA_BASE_URL"`
		APIKey    string  `yaml:"api_key" env:"DATA_API_KEY"`
		MockPrice float64 `yaml:"mock_price" env:"DATA_MOCK_PRICE"`
	} `yaml:"data_source"`
	Fetch struct {
		Timeout      time.Duration `yaml:"timeout" env:"FETCH_TIMEOUT"`
		LookbackDays int           `yaml:"lookback_days" env:"FETCH_LOOKBACK_DAYS"`
	} `yaml:"fetch"`
	Schedule struct {
		ReportCron string `yaml:"report_cron" env:"CRON_REPORT"`
	} `yaml:"schedule"`
	Markets struct {
		Israel struct {
			Timezone string `yaml:"timezone"`
			Open     string `yaml:"open" env:"TASE_OPEN"`
			Close    string `yaml:"close" env:"TASE_CLOSE"`
		} `yaml:"israel"`
		US struct {
			Timezone string   `yaml:"timezone"`
			Open     string   `yaml:"open" env:"US_OPEN"`
			Close    string   `yaml:"close" env:"US_CLOSE"`
			Weekend  []string `yaml:"weekend" env:"US_WEEKEND"`
		} `yaml:"us"`
	} `yaml:"markets"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Redis struct {
		URL string        `yaml:"url" env:"REDIS_URL"`
		TTL time.Duration `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level" env:"LOG_LEVEL"`
		Format  string `yaml:"format" env:"LOG_FORMAT"`
		Tracing bool   `yaml:"tracing" env:"LOG_TRACING_ENABLED"`
	} `yaml:"log"`
	Proxy    string `yaml:"proxy" env:"HTTPS_PROXY"`
	Timezone string `yaml:"timezone" env:"REPORT_TIMEZONE"`
	RunOnce  bool   `yaml:"run_once" env:"RUN_ONCE"`
	DryRun   bool   `yaml:"dry_run" env:"DRY_RUN"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and finally fills defaults.
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

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Yemot.UploadURL == "" {
		c.Yemot.UploadURL = "https://www.call2all.co.il/ym/api/UploadFile"
	}
	if c.Yemot.TargetPath == "" {
		c.Yemot.TargetPath = "ivr2:/2/"
	}
	if c.Yemot.FileName == "" {
		c.Yemot.FileName = "001.wav"
	}
	if c.Yemot.MaxRetries == 0 {
		c.Yemot.MaxRetries = 3
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "he-IL-AvriNeural"
	}
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = "audio-24khz-48kbitrate-mono-mp3"
	}
	if c.Audio.FFmpegPath == "" {
		c.Audio.FFmpegPath = "ffmpeg"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 8000
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.MockPrice == 0 {
		c.DataSource.MockPrice = 100
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.LookbackDays == 0 {
		c.Fetch.LookbackDays = 5
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 */15 8-23 * * *"
	}
	if c.Markets.Israel.Timezone == "" {
		c.Markets.Israel.Timezone = "Asia/Jerusalem"
	}
	if c.Markets.Israel.Open == "" {
		c.Markets.Israel.Open = "09:59"
	}
	if c.Markets.Israel.Close == "" {
		c.Markets.Israel.Close = "17:25"
	}
	if c.Markets.US.Timezone == "" {
		c.Markets.US.Timezone = "America/New_York"
	}
	if c.Markets.US.Open == "" {
		c.Markets.US.Open = "09:30"
	}
	if c.Markets.US.Close == "" {
		c.Markets.US.Close = "16:00"
	}
	if len(c.Markets.US.Weekend) == 0 {
		c.Markets.US.Weekend = []string{"saturday", "sunday"}
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_snapshot.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Jerusalem"
	}
}

// YemotToken returns the upload credential. An explicit token wins over
// username and password.
func (c *Config) YemotToken() string {
	if c.Yemot.Token != "" {
		return c.Yemot.Token
	}
	if c.Yemot.Username == "" {
		return ""
	}
	return c.Yemot.Username + ":" + c.Yemot.Password
}

// TelegramEnabled reports whether operator alerts are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location loads the report time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var validProviders = map[string]bool{"yahoo": true, "rest": true, "mock": true}

// Validate checks that all required fields are set. Delivery credentials are
// only required when the run actually uploads.
func (c *Config) Validate() error {
	if !validProviders[c.DataSource.Provider] {
		return fmt.Errorf("data_source.provider must be one of yahoo, rest, mock; got %q", c.DataSource.Provider)
	}
	if c.DataSource.Provider == "rest" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for the rest provider")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.LookbackDays < 3 {
		return fmt.Errorf("fetch.lookback_days must be at least 3, got %d", c.Fetch.LookbackDays)
	}
	for name, v := range map[string]string{
		"markets.israel.open":  c.Markets.Israel.Open,
		"markets.israel.close": c.Markets.Israel.Close,
		"markets.us.open":      c.Markets.US.Open,
		"markets.us.close":     c.Markets.US.Close,
	} {
		if _, err := time.Parse("15:04", strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s must be HH:MM, got %q", name, v)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.DryRun {
		return nil
	}
	if c.YemotToken() == "" {
		return fmt.Errorf("yemot.token or yemot.username is required")
	}
	if c.Speech.Key == "" {
		return fmt.Errorf("speech.key is required")
	}
	if c.Speech.Region == "" && c.Speech.Endpoint == "" {
		return fmt.Errorf("speech.region or speech.endpoint is required")
	}
	return nil
}

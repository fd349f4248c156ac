package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole configuration surface, constructed once at process
// start and passed into each component constructor. No component reads the
// environment directly; secrets are resolved here.
type Config struct {
	DataDir string `yaml:"data_dir"`

	News struct {
		IntervalMinutes int    `yaml:"interval_minutes"`
		Limit           int    `yaml:"limit"`
		Category        string `yaml:"category"`
		SourceLabel     string `yaml:"source_label"`
		Source          string `yaml:"source"` // "api" or "scrape"
		ScrapeURL       string `yaml:"scrape_url"`
	} `yaml:"news"`

	Sentiment struct {
		IntervalMinutes int      `yaml:"interval_minutes"`
		LimitPct        float64  `yaml:"limit_pct"`
		Indices         []string `yaml:"indices"`
	} `yaml:"sentiment"`

	Report struct {
		Times   map[string]string `yaml:"times"` // period label -> "HH:MM"
		BaseURL string            `yaml:"base_url"`
		Model   string            `yaml:"model"`
		APIKey  string            `yaml:"-"` // env only, never from file
	} `yaml:"report"`

	Classify struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"classify"`

	Provider struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Token          string `yaml:"-"` // env only
	} `yaml:"provider"`
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if c.News.IntervalMinutes <= 0 {
		return fmt.Errorf("news.interval_minutes must be positive, got %d", c.News.IntervalMinutes)
	}
	if c.News.Limit <= 0 {
		return fmt.Errorf("news.limit must be positive, got %d", c.News.Limit)
	}
	if c.News.Source != "api" && c.News.Source != "scrape" {
		return fmt.Errorf("news.source must be 'api' or 'scrape', got '%s'", c.News.Source)
	}
	if c.Sentiment.IntervalMinutes <= 0 {
		return fmt.Errorf("sentiment.interval_minutes must be positive, got %d", c.Sentiment.IntervalMinutes)
	}
	if c.Sentiment.LimitPct <= 0 {
		return fmt.Errorf("sentiment.limit_pct must be positive, got %.2f", c.Sentiment.LimitPct)
	}
	for period, at := range c.Report.Times {
		if _, err := time.Parse("15:04", at); err != nil {
			return fmt.Errorf("report.times[%s] must be HH:MM, got '%s'", period, at)
		}
	}
	return nil
}

// LoadConfig reads the yaml config file, fills defaults, applies environment
// overrides and validates. A missing config file is not an error: the
// pipeline runs on defaults plus environment, like the original backend.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config parse failed: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	applyDefaults(&c)
	applyEnv(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.News.IntervalMinutes == 0 {
		c.News.IntervalMinutes = 1
	}
	if c.News.Limit == 0 {
		c.News.Limit = 20
	}
	if c.News.Category == "" {
		c.News.Category = "all"
	}
	if c.News.SourceLabel == "" {
		c.News.SourceLabel = "财联社"
	}
	if c.News.Source == "" {
		c.News.Source = "api"
	}
	if c.Sentiment.IntervalMinutes == 0 {
		c.Sentiment.IntervalMinutes = 2
	}
	if c.Sentiment.LimitPct == 0 {
		c.Sentiment.LimitPct = 9.8
	}
	if len(c.Sentiment.Indices) == 0 {
		c.Sentiment.Indices = []string{"上证指数", "创业板指"}
	}
	if len(c.Report.Times) == 0 {
		c.Report.Times = map[string]string{
			"midday": "11:30",
			"close":  "15:30",
		}
	}
	if c.Report.BaseURL == "" {
		c.Report.BaseURL = "https://api.deepseek.com"
	}
	if c.Report.Model == "" {
		c.Report.Model = "deepseek-chat"
	}
	if c.Classify.BaseURL == "" {
		c.Classify.BaseURL = "http://localhost:11434"
	}
	if c.Classify.Model == "" {
		c.Classify.Model = "qwen2.5:7b"
	}
	if c.Classify.TimeoutSeconds == 0 {
		c.Classify.TimeoutSeconds = 30
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 20
	}
}

func applyEnv(c *Config) {
	if v := os.Getenv("PULSE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Classify.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Classify.Model = v
	}
	if v := os.Getenv("MARKET_DATA_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	c.Provider.Token = os.Getenv("MARKET_DATA_TOKEN")
	c.Report.APIKey = os.Getenv("DEEPSEEK_API_KEY")
}

// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-jobwatch-automation/internal/provider"
)

// Config is the full runtime configuration. Secrets come from the
// environment; everything else from configs/config.yaml with defaults.
type Config struct {
	Search   SearchConfig   `yaml:"search"`
	Filters  FilterConfig   `yaml:"filters"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Notify   NotifyConfig   `yaml:"notify"`
	Provider ProviderConfig `yaml:"provider"`
}

type SearchConfig struct {
	Terms            []string `yaml:"terms"`
	Companies        []string `yaml:"companies"` //optional: scope every term to each company
	Sites            []string `yaml:"sites"`
	ExperienceLevels []string `yaml:"experience_levels"`
	Location         string   `yaml:"location"`
	ResultsWanted    int      `yaml:"results_wanted"`
	MaxAgeHours      int      `yaml:"max_age_hours"`
}

type FilterConfig struct {
	TitleKeywords      []string `yaml:"title_keywords"`
	TitleReject        []string `yaml:"title_reject"`
	SourceReject       []string `yaml:"source_reject"`
	DescriptionReject  []string `yaml:"description_reject"`
	EasyApplyMarkers   []string `yaml:"easy_apply_markers"`
	SponsorshipMarkers []string `yaml:"sponsorship_markers"`
	MaxExperienceYears int      `yaml:"max_experience_years"`
}

type CacheConfig struct {
	Path       string `yaml:"path"`
	TTLDays    int    `yaml:"ttl_days"`
	MaxEntries int    `yaml:"max_entries"`
}

type FetchConfig struct {
	Workers            int `yaml:"workers"`
	QueryTimeoutSecs   int `yaml:"query_timeout_seconds"`
	RunDeadlineMinutes int `yaml:"run_deadline_minutes"`
}

type NotifyConfig struct {
	Sink            string `yaml:"sink"` //"slack", "telegram" or "none"
	BatchSize       int    `yaml:"batch_size"`
	MaxRetries      int    `yaml:"max_retries"`
	PacingSecs      int    `yaml:"pacing_seconds"`
	BackoffBaseSecs int    `yaml:"backoff_base_seconds"`

	//secrets, env only
	SlackWebhookURL string `yaml:"-"`
	TelegramToken   string `yaml:"-"`
	TelegramChatID  int64  `yaml:"-"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Country string `yaml:"country"`

	//secrets, env only
	AppID  string `yaml:"-"`
	AppKey string `yaml:"-"`
}

// Load reads .env, the YAML config file and the environment, applies
// defaults and validates. An empty query set is rejected here, before the
// pipeline ever starts.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	//Override with env vars
	cfg.Notify.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	cfg.Notify.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.TelegramChatID = id
	}
	cfg.Provider.AppID = os.Getenv("BOARD_APP_ID")
	cfg.Provider.AppKey = os.Getenv("BOARD_APP_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in everything that is safe to default.
func (c *Config) applyDefaults() {
	if len(c.Search.Sites) == 0 {
		c.Search.Sites = []string{"linkedin"}
	}
	if c.Search.Location == "" {
		c.Search.Location = "United States"
	}
	if c.Search.ResultsWanted == 0 {
		c.Search.ResultsWanted = 15
	}
	if c.Search.MaxAgeHours == 0 {
		c.Search.MaxAgeHours = 24
	}
	if c.Filters.MaxExperienceYears == 0 {
		c.Filters.MaxExperienceYears = 3
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".cache"
	}
	if c.Cache.TTLDays == 0 {
		c.Cache.TTLDays = 30
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.Fetch.Workers == 0 {
		c.Fetch.Workers = 5
	}
	if c.Fetch.QueryTimeoutSecs == 0 {
		c.Fetch.QueryTimeoutSecs = 60
	}
	if c.Fetch.RunDeadlineMinutes == 0 {
		c.Fetch.RunDeadlineMinutes = 10
	}
	if c.Notify.Sink == "" {
		c.Notify.Sink = "slack"
	}
	if c.Notify.BatchSize == 0 {
		c.Notify.BatchSize = 20
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 3
	}
	if c.Notify.PacingSecs == 0 {
		c.Notify.PacingSecs = 1
	}
	if c.Notify.BackoffBaseSecs == 0 {
		c.Notify.BackoffBaseSecs = 1
	}
	if c.Provider.Country == "" {
		c.Provider.Country = "us"
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Search.Terms) == 0 {
		return fmt.Errorf("no search terms configured")
	}
	switch c.Notify.Sink {
	case "slack", "telegram", "none":
	default:
		return fmt.Errorf("unknown sink %q (want slack, telegram or none)", c.Notify.Sink)
	}
	if c.Notify.Sink == "telegram" {
		if c.Notify.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram sink")
		}
		if c.Notify.TelegramChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required for the telegram sink")
		}
	}
	return nil
}

// BuildQueries expands the search config into one query per
// (term × company) pair, or one per term when no companies are scoped.
func (c *Config) BuildQueries() []provider.Query {
	base := provider.Query{
		Location:         c.Search.Location,
		Sites:            c.Search.Sites,
		ExperienceLevels: c.Search.ExperienceLevels,
		MaxAgeHours:      c.Search.MaxAgeHours,
		ResultsWanted:    c.Search.ResultsWanted,
	}

	var queries []provider.Query
	for _, term := range c.Search.Terms {
		if len(c.Search.Companies) == 0 {
			q := base
			q.Term = term
			queries = append(queries, q)
			continue
		}
		for _, company := range c.Search.Companies {
			q := base
			q.Term = term
			q.Company = company
			queries = append(queries, q)
		}
	}
	return queries
}

// TTL returns the dedup expiry window.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}

// QueryTimeout returns the per-query provider deadline.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Fetch.QueryTimeoutSecs) * time.Second
}

// RunDeadline returns the whole-run deadline.
func (c *Config) RunDeadline() time.Duration {
	return time.Duration(c.Fetch.RunDeadlineMinutes) * time.Minute
}

package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	configPathEnv       = "TRENDPRESS_CONFIG"
	openAIKeyEnv        = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	newsAPIKeyEnv       = "NEWSAPI_API_KEY"
	wordpressURLEnv     = "WORDPRESS_URL"
	wordpressUserEnv    = "WORDPRESS_USERNAME"
	wordpressPassEnv    = "WORDPRESS_PASSWORD"
	maxTrendsEnv        = "MAX_TRENDS"
	maxNewsPerTrendEnv  = "MAX_NEWS_PER_TREND"
	trendsFeedURLEnv    = "TRENDS_RSS_URL"
	outputDirEnv        = "OUTPUT_DIR"
	logLevelEnv         = "LOG_LEVEL"
	logFileEnv          = "LOG_FILE"
	databaseDSNEnv      = "DATABASE_DSN"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	serverPortEnv       = "PORT"
	pipelineScheduleEnv = "PIPELINE_SCHEDULE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Trends        TrendsConfig       `yaml:"trends"`
	News          NewsConfig         `yaml:"news"`
	OpenAI        OpenAIConfig       `yaml:"openai"`
	Images        ImagesConfig       `yaml:"images"`
	WordPress     WordPressConfig    `yaml:"wordpress"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Output        OutputConfig       `yaml:"output"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls verbosity and the log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// TrendsConfig points at the trends RSS feed.
type TrendsConfig struct {
	FeedURL   string        `yaml:"feedUrl"`
	MaxTrends int           `yaml:"maxTrends"`
	Timeout   time.Duration `yaml:"timeout"`
}

// NewsConfig groups both news strategies and the article enricher.
type NewsConfig struct {
	APIKey      string        `yaml:"apiKey"`
	APIEndpoint string        `yaml:"apiEndpoint"`
	Language    string        `yaml:"language"`
	SortBy      string        `yaml:"sortBy"`
	SearchURL   string        `yaml:"searchUrl"`
	HL          string        `yaml:"hl"`
	GL          string        `yaml:"gl"`
	CEID        string        `yaml:"ceid"`
	MaxPerTrend int           `yaml:"maxPerTrend"`
	Strategies  []string      `yaml:"strategies"`
	UserAgent   string        `yaml:"userAgent"`
	Timeout     time.Duration `yaml:"timeout"`
	SkipContent bool          `yaml:"skipContent"`
}

// OpenAIConfig defines how to contact the chat completions API.
type OpenAIConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"apiKey"`
	SystemPrompt  string        `yaml:"systemPrompt"`
	Language      string        `yaml:"language"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"maxTokens"`
	MaxInputChars int           `yaml:"maxInputChars"`
	MinLength     int           `yaml:"minLength"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ImagesConfig describes featured image generation.
type ImagesConfig struct {
	Disabled    bool          `yaml:"disabled"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Size        string        `yaml:"size"`
	Quality     string        `yaml:"quality"`
	FallbackURL string        `yaml:"fallbackUrl"`
	Timeout     time.Duration `yaml:"timeout"`
}

// WordPressConfig carries the XML-RPC endpoint and credentials.
type WordPressConfig struct {
	URL        string        `yaml:"url"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	Status     string        `yaml:"status"`
	Categories []string      `yaml:"categories"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Configured reports whether every credential is present.
func (w WordPressConfig) Configured() bool {
	return w.URL != "" && w.Username != "" && w.Password != ""
}

// PipelineConfig paces the run between items and trends.
type PipelineConfig struct {
	ItemDelay  time.Duration `yaml:"itemDelay"`
	TrendDelay time.Duration `yaml:"trendDelay"`
}

// OutputConfig controls on-disk artifacts.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	SkipArticles  bool   `yaml:"skipArticles"`
	KeepPublished bool   `yaml:"keepPublished"`
}

// DatabaseConfig describes the optional Postgres outcome history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ServerConfig is used by the HTTP trigger API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when the pipeline runs in serve mode.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads .env, the YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML path taking precedence over TRENDPRESS_CONFIG.
func LoadFrom(path string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	return LoadFile(path)
}

// LoadFile is Load without .env handling and with an explicit YAML path.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
				cfg.applyExplicit(raw)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Trends.MaxTrends < 1 {
		errs = append(errs, errors.New("trends.maxTrends must be at least 1"))
	}
	if c.News.MaxPerTrend < 1 {
		errs = append(errs, errors.New("news.maxPerTrend must be at least 1"))
	}
	if strings.TrimSpace(c.Trends.FeedURL) == "" {
		errs = append(errs, errors.New("trends.feedUrl is empty"))
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		errs = append(errs, errors.New("output.dir is empty"))
	}
	return errors.Join(errs...)
}

// explicitFields holds YAML keys whose zero value is a valid setting,
// so presence rather than value decides whether they override the default.
type explicitFields struct {
	OpenAI struct {
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"openai"`
}

func (c *Config) applyExplicit(raw []byte) {
	var explicit explicitFields
	if err := yaml.Unmarshal(raw, &explicit); err != nil {
		return
	}
	if explicit.OpenAI.Temperature != nil {
		c.OpenAI.Temperature = *explicit.OpenAI.Temperature
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.OpenAI.APIKey, openAIKeyEnv)
	setString(&c.OpenAI.Model, openAIModelEnv)
	setString(&c.News.APIKey, newsAPIKeyEnv)
	setString(&c.WordPress.URL, wordpressURLEnv)
	setString(&c.WordPress.Username, wordpressUserEnv)
	setString(&c.WordPress.Password, wordpressPassEnv)
	setString(&c.Trends.FeedURL, trendsFeedURLEnv)
	setString(&c.Output.Dir, outputDirEnv)
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.File, logFileEnv)
	setString(&c.Database.DSN, databaseDSNEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)
	setString(&c.Scheduler.CronExpression, pipelineScheduleEnv)

	if v := os.Getenv(serverPortEnv); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}

	setInt(&c.Trends.MaxTrends, maxTrendsEnv)
	setInt(&c.News.MaxPerTrend, maxNewsPerTrendEnv)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, keeping %d", env, v, *dst)
		return
	}
	*dst = n
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.File, override.Logging.File)

	mergeString(&base.Trends.FeedURL, override.Trends.FeedURL)
	mergeInt(&base.Trends.MaxTrends, override.Trends.MaxTrends)
	mergeDuration(&base.Trends.Timeout, override.Trends.Timeout)

	mergeString(&base.News.APIKey, override.News.APIKey)
	mergeString(&base.News.APIEndpoint, override.News.APIEndpoint)
	mergeString(&base.News.Language, override.News.Language)
	mergeString(&base.News.SortBy, override.News.SortBy)
	mergeString(&base.News.SearchURL, override.News.SearchURL)
	mergeString(&base.News.HL, override.News.HL)
	mergeString(&base.News.GL, override.News.GL)
	mergeString(&base.News.CEID, override.News.CEID)
	mergeString(&base.News.UserAgent, override.News.UserAgent)
	mergeInt(&base.News.MaxPerTrend, override.News.MaxPerTrend)
	mergeDuration(&base.News.Timeout, override.News.Timeout)
	if len(override.News.Strategies) > 0 {
		base.News.Strategies = override.News.Strategies
	}
	base.News.SkipContent = base.News.SkipContent || override.News.SkipContent

	mergeString(&base.OpenAI.Endpoint, override.OpenAI.Endpoint)
	mergeString(&base.OpenAI.Model, override.OpenAI.Model)
	mergeString(&base.OpenAI.APIKey, override.OpenAI.APIKey)
	mergeString(&base.OpenAI.SystemPrompt, override.OpenAI.SystemPrompt)
	mergeString(&base.OpenAI.Language, override.OpenAI.Language)
	mergeInt(&base.OpenAI.MaxTokens, override.OpenAI.MaxTokens)
	mergeInt(&base.OpenAI.MaxInputChars, override.OpenAI.MaxInputChars)
	mergeInt(&base.OpenAI.MinLength, override.OpenAI.MinLength)
	mergeDuration(&base.OpenAI.Timeout, override.OpenAI.Timeout)

	base.Images.Disabled = base.Images.Disabled || override.Images.Disabled
	mergeString(&base.Images.Endpoint, override.Images.Endpoint)
	mergeString(&base.Images.Model, override.Images.Model)
	mergeString(&base.Images.Size, override.Images.Size)
	mergeString(&base.Images.Quality, override.Images.Quality)
	mergeString(&base.Images.FallbackURL, override.Images.FallbackURL)
	mergeDuration(&base.Images.Timeout, override.Images.Timeout)

	mergeString(&base.WordPress.URL, override.WordPress.URL)
	mergeString(&base.WordPress.Username, override.WordPress.Username)
	mergeString(&base.WordPress.Password, override.WordPress.Password)
	mergeString(&base.WordPress.Status, override.WordPress.Status)
	mergeDuration(&base.WordPress.Timeout, override.WordPress.Timeout)
	if len(override.WordPress.Categories) > 0 {
		base.WordPress.Categories = override.WordPress.Categories
	}

	mergeDuration(&base.Pipeline.ItemDelay, override.Pipeline.ItemDelay)
	mergeDuration(&base.Pipeline.TrendDelay, override.Pipeline.TrendDelay)

	mergeString(&base.Output.Dir, override.Output.Dir)
	base.Output.SkipArticles = base.Output.SkipArticles || override.Output.SkipArticles
	base.Output.KeepPublished = base.Output.KeepPublished || override.Output.KeepPublished

	mergeString(&base.Database.DSN, override.Database.DSN)

	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)

	mergeString(&base.Server.Addr, override.Server.Addr)

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", File: "pipeline.log"},
		Trends: TrendsConfig{
			FeedURL:   "https://trends.google.com/trending/rss?geo=BR",
			MaxTrends: 5,
			Timeout:   15 * time.Second,
		},
		News: NewsConfig{
			APIEndpoint: "https://newsapi.org/v2/everything",
			Language:    "pt",
			SortBy:      "relevancy",
			SearchURL:   "https://news.google.com/search",
			HL:          "pt-BR",
			GL:          "BR",
			CEID:        "BR:pt-419",
			MaxPerTrend: 3,
			Strategies:  []string{"newsapi", "googlenews"},
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:     10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Endpoint:      "https://api.openai.com/v1/chat/completions",
			Model:         "gpt-3.5-turbo",
			SystemPrompt:  "You are an experienced journalist who rewrites news articles into original, engaging and well structured pieces.",
			Language:      "Brazilian Portuguese",
			Temperature:   0.7,
			MaxTokens:     2000,
			MaxInputChars: 4000,
			MinLength:     200,
			Timeout:       60 * time.Second,
		},
		Images: ImagesConfig{
			Endpoint:    "https://api.openai.com/v1/images/generations",
			Model:       "dall-e-3",
			Size:        "1024x1024",
			Quality:     "standard",
			FallbackURL: "https://source.unsplash.com/1600x900/?%s",
			Timeout:     60 * time.Second,
		},
		WordPress: WordPressConfig{
			Status:     "publish",
			Categories: []string{"Tendências", "Notícias"},
			Timeout:    30 * time.Second,
		},
		Pipeline: PipelineConfig{
			ItemDelay:  2 * time.Second,
			TrendDelay: 5 * time.Second,
		},
		Output:    OutputConfig{Dir: "output"},
		Server:    ServerConfig{Addr: ":8000"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
	}
}

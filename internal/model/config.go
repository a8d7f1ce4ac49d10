package model

import "time"

// Config is the full runtime configuration. It is loaded from defaults,
// ~/.cfpqc/config.yaml, CFPQC_* environment variables and CLI flags.
type Config struct {
	Lexicon   LexiconConfig   `yaml:"lexicon" mapstructure:"lexicon"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Weights   WeightsConfig   `yaml:"weights" mapstructure:"weights"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Workers   WorkersConfig   `yaml:"workers" mapstructure:"workers"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck" mapstructure:"linkcheck"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// LexiconConfig selects the spam lexicon
type LexiconConfig struct {
	Path       string   `yaml:"path" mapstructure:"path"` // Empty uses the embedded list
	Exceptions []string `yaml:"exceptions" mapstructure:"exceptions"`
}

// RulesConfig holds the thresholds used by the compliance rules
type RulesConfig struct {
	MinWordCount        int      `yaml:"min_word_count" mapstructure:"min_word_count"`
	MaxSpamDensity      float64  `yaml:"max_spam_density" mapstructure:"max_spam_density"`
	DeadlineWindowDays  int      `yaml:"deadline_window_days" mapstructure:"deadline_window_days"`
	MaxJournalMentions  int      `yaml:"max_journal_mentions" mapstructure:"max_journal_mentions"`
	MaxHypeWords        int      `yaml:"max_hype_words" mapstructure:"max_hype_words"`
	CredibilityLinks    int      `yaml:"credibility_links" mapstructure:"credibility_links"`
	CredibilityPaths    []string `yaml:"credibility_paths" mapstructure:"credibility_paths"`
	ArticleTypeTrigger  int      `yaml:"article_type_trigger" mapstructure:"article_type_trigger"`
	DeadlineProximity   int      `yaml:"deadline_proximity" mapstructure:"deadline_proximity"` // Characters
	EnableSupplementary bool     `yaml:"enable_supplementary" mapstructure:"enable_supplementary"`
	FooterLines         []string `yaml:"footer_lines" mapstructure:"footer_lines"` // Required in order inside the signature
	MaxBullets          int      `yaml:"max_bullets" mapstructure:"max_bullets"`
}

// WeightsConfig tunes the composite score without touching the algorithm
type WeightsConfig struct {
	Subject           float64 `yaml:"subject" mapstructure:"subject"`
	Content           float64 `yaml:"content" mapstructure:"content"`
	Structure         float64 `yaml:"structure" mapstructure:"structure"`
	ContentQuality    float64 `yaml:"content_quality" mapstructure:"content_quality"`
	Waiver            float64 `yaml:"waiver" mapstructure:"waiver"`
	BounceRiskPenalty float64 `yaml:"bounce_risk_penalty" mapstructure:"bounce_risk_penalty"`
}

// LLMConfig configures the optional tone reviewer
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // Seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures report memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
}

// StorageConfig configures the optional result store
type StorageConfig struct {
	DSN string `yaml:"-" mapstructure:"dsn"`
}

// WorkersConfig configures batch parallelism
type WorkersConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LinkCheckConfig configures the reachability check
type LinkCheckConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // development, production
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Lexicon: LexiconConfig{
			Exceptions: []string{"deadline", "submission"},
		},
		Rules: RulesConfig{
			MinWordCount:        320,
			MaxSpamDensity:      0.02,
			DeadlineWindowDays:  60,
			MaxJournalMentions:  2,
			MaxHypeWords:        3,
			CredibilityLinks:    2,
			CredibilityPaths:    []string{"about", "editorial-board", "current-issue", "aims-and-scope", "archive"},
			ArticleTypeTrigger:  3,
			DeadlineProximity:   80,
			EnableSupplementary: true,
			FooterLines:         []string{
				"warm regards", "editorial office", "616 corporate way", "suite 2-6158",
				"valley cottage", "ny 10989", "united states", "email:",
			},
			MaxBullets: 6,
		},
		Weights: WeightsConfig{
			Subject:           0.20,
			Content:           0.15,
			Structure:         0.15,
			ContentQuality:    0.15,
			Waiver:            0.20,
			BounceRiskPenalty: 0.10,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 400,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Workers: WorkersConfig{
			Concurrency: 4,
		},
		LinkCheck: LinkCheckConfig{
			Timeout:           10 * time.Second,
			UserAgent:         "cfpqc/0.1 (+https://github.com/ppiankov/cfpqc)",
			RequestsPerSecond: 2,
			BurstSize:         2,
			RespectRobots:     true,
		},
		Log: LogConfig{
			Mode: "development",
		},
	}
}

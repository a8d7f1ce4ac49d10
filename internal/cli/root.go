package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/cfpqc/internal/model"
)

// Version is the released version
const Version = "0.1.0"

// ErrChecksFailed is returned when at least one draft fails the checklist
var ErrChecksFailed = errors.New("draft failed QC checks")

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cfpqc",
	Short: "cfpqc - Deterministic QC for call-for-papers emails",
	Long: `cfpqc checks call-for-papers marketing emails before they are sent.

It runs a fixed compliance checklist over each draft (word count, spam
density, forbidden claims, deadline, calls to action, signature...),
scores subject lines and body structure, and ranks competing drafts.

Every check is deterministic: the same draft on the same day always
gets the same report. Tone judgments that keyword rules cannot make are
marked for review and can optionally be delegated to an LLM.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of cfpqc.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cfpqc v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.cfpqc/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("lexicon", "", "spam lexicon file, one word or phrase per line (default: built-in list)")
	rootCmd.PersistentFlags().String("log-mode", "", "log mode: development or production")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("lexicon.path", rootCmd.PersistentFlags().Lookup("lexicon"))
	_ = viper.BindPFlag("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".cfpqc"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CFPQC_LLM_PROVIDER -> llm.provider
	viper.SetEnvPrefix("CFPQC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment variables can override it
func setDefaults(cfg *model.Config) {
	defaults := map[string]interface{}{
		"lexicon.path":                  cfg.Lexicon.Path,
		"lexicon.exceptions":            cfg.Lexicon.Exceptions,
		"rules.min_word_count":          cfg.Rules.MinWordCount,
		"rules.max_spam_density":        cfg.Rules.MaxSpamDensity,
		"rules.deadline_window_days":    cfg.Rules.DeadlineWindowDays,
		"rules.max_journal_mentions":    cfg.Rules.MaxJournalMentions,
		"rules.max_hype_words":          cfg.Rules.MaxHypeWords,
		"rules.credibility_links":       cfg.Rules.CredibilityLinks,
		"rules.credibility_paths":       cfg.Rules.CredibilityPaths,
		"rules.article_type_trigger":    cfg.Rules.ArticleTypeTrigger,
		"rules.deadline_proximity":      cfg.Rules.DeadlineProximity,
		"rules.enable_supplementary":    cfg.Rules.EnableSupplementary,
		"rules.footer_lines":            cfg.Rules.FooterLines,
		"rules.max_bullets":             cfg.Rules.MaxBullets,
		"weights.subject":               cfg.Weights.Subject,
		"weights.content":               cfg.Weights.Content,
		"weights.structure":             cfg.Weights.Structure,
		"weights.content_quality":       cfg.Weights.ContentQuality,
		"weights.waiver":                cfg.Weights.Waiver,
		"weights.bounce_risk_penalty":   cfg.Weights.BounceRiskPenalty,
		"llm.provider":                  cfg.LLM.Provider,
		"llm.model":                     cfg.LLM.Model,
		"llm.api_key":                   cfg.LLM.APIKey,
		"llm.base_url":                  cfg.LLM.BaseURL,
		"llm.timeout":                   cfg.LLM.Timeout,
		"llm.max_tokens":                cfg.LLM.MaxTokens,
		"cache.enabled":                 cfg.Cache.Enabled,
		"cache.ttl":                     cfg.Cache.TTL,
		"cache.dir":                     cfg.Cache.Dir,
		"cache.redis_addr":              cfg.Cache.RedisAddr,
		"storage.dsn":                   cfg.Storage.DSN,
		"workers.concurrency":           cfg.Workers.Concurrency,
		"linkcheck.timeout":             cfg.LinkCheck.Timeout,
		"linkcheck.user_agent":          cfg.LinkCheck.UserAgent,
		"linkcheck.requests_per_second": cfg.LinkCheck.RequestsPerSecond,
		"linkcheck.burst_size":          cfg.LinkCheck.BurstSize,
		"linkcheck.respect_robots":      cfg.LinkCheck.RespectRobots,
		"linkcheck.http_proxy":          cfg.LinkCheck.HTTPProxy,
		"linkcheck.https_proxy":         cfg.LinkCheck.HTTPSProxy,
		"linkcheck.no_proxy":            cfg.LinkCheck.NoProxy,
		"log.mode":                      cfg.Log.Mode,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Log.Mode = "development"
	}
	return cfg, nil
}

package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "careercraft"
)

type Config struct {
	Listen         string           `mapstructure:"listen" json:"listen"`
	RequestTimeout time.Duration    `mapstructure:"request-timeout" json:"request_timeout"`
	RateLimit      *RateLimitConfig `mapstructure:"rate-limit" json:"rate_limit"`
	AI             *AIConfig        `mapstructure:"ai" json:"ai"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per-minute" json:"per_minute"`
	Burst     int `mapstructure:"burst" json:"burst"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider" json:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini" json:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"api_key"`
	APIKeyFile   string `mapstructure:"api-key-file" json:"api_key_file"`
	Model        string `mapstructure:"model" json:"model"`
	MaxAttempts  int    `mapstructure:"max-attempts" json:"max_attempts"`
	MaxLogLength int    `mapstructure:"max-log-length" json:"max_log_length"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "careercraft is a career coaching service: resume analysis, study plans and interview practice",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("request-timeout", 2*time.Minute)
	viper.SetDefault("rate-limit.per-minute", 30)
	viper.SetDefault("rate-limit.burst", 5)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-attempts", 1)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	cobra.OnInitialize(loadEnvFile, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is careercraft.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file loaded into the environment when present")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// loadEnvFile never overrides variables already set in the environment.
func loadEnvFile() {
	if envFile == "" {
		return
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading env file %s: %v", envFile, err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless set explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.RateLimit == nil {
		config.RateLimit = &RateLimitConfig{}
	}

	return config, nil
}

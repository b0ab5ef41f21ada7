package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	TraderMade TraderMade `mapstructure:"tradermade"`
	Report     Report     `mapstructure:"report"`
	Metrics    Metrics    `mapstructure:"metrics"`
	Logger     Logger     `mapstructure:"logger"`
	Database   Database   `mapstructure:"database"`
}

// TraderMade holds the configuration for the TraderMade market data API.
type TraderMade struct {
	ApiKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Report holds the location of the statement to analyze.
type Report struct {
	Path   string `mapstructure:"path"`
	Enrich bool   `mapstructure:"enrich"`
}

// Metrics holds the parameters of the statistics that are not plain sums.
type Metrics struct {
	BootstrapIterations int     `mapstructure:"bootstrap_iterations"`
	ConfidenceLevel     float64 `mapstructure:"confidence_level"`
	Seed                uint64  `mapstructure:"seed"`
}

// Database holds the configuration for the snapshot database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"report":      "report.path",
	"enrich":      "report.enrich",
	"snapshot-db": "database.dsn",
	"log-level":   "logger.level",
}

// LoadConfig reads configuration from file, .env, environment variables and
// flags, in increasing order of precedence. flags may be nil.
func LoadConfig(path string, flags *pflag.FlagSet) (config Config, err error) {
	// A missing .env file is not an error, the key may come from the real environment.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err = v.BindEnv("tradermade.api_key", "TM_API_KEY"); err != nil {
		return
	}

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err = v.BindPFlag(key, f); err != nil {
					return
				}
			}
		}
	}

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tradermade.base_url", "https://marketdata.tradermade.com/api/v1")
	v.SetDefault("tradermade.rate_limit", 2) // requests per second
	v.SetDefault("tradermade.rate_limit_burst", 1)
	v.SetDefault("tradermade.max_retries", 3)
	v.SetDefault("tradermade.timeout", 30*time.Second)
	v.SetDefault("report.enrich", true)
	v.SetDefault("metrics.bootstrap_iterations", 10000)
	v.SetDefault("metrics.confidence_level", 95)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("database.dsn", "file::memory:")
}

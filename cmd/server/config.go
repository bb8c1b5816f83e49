package main

import (
	"flag"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	configpkg "github.com/idudko/promreg/internal/config"
)

// JSONConfig represents configuration from JSON file
type JSONConfig struct {
	Address         string `json:"address"`
	MetricsPath     string `json:"metrics_path"`
	Step            string `json:"step"`
	Strict          bool   `json:"strict"`
	TrustedSubnet   string `json:"trusted_subnet"`
	Key             string `json:"key"`
	LogLevel        string `json:"log_level"`
	RefreshInterval string `json:"refresh_interval"`
}

// Config represents the full configuration
type Config struct {
	Address         string        `env:"ADDRESS"`
	MetricsPath     string        `env:"METRICS_PATH"`
	Step            time.Duration `env:"STEP"`
	Strict          bool          `env:"STRICT"`
	TrustedSubnet   string        `env:"TRUSTED_SUBNET"`
	Key             string        `env:"KEY"`
	LogLevel        string        `env:"LOG_LEVEL"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`
	configFile      string
}

func defaultConfig() Config {
	return Config{
		Address:         "localhost:8080",
		MetricsPath:     "/metrics",
		Step:            time.Minute,
		LogLevel:        "info",
		RefreshInterval: 5 * time.Second,
	}
}

// LoadConfig builds the configuration from all sources.
// Priority order (lowest to highest):
// 1. Default values
// 2. Config file (if specified via -c/-config or CONFIG env var)
// 3. Environment variables
// 4. Command line flags
func LoadConfig(name string, args []string) (Config, error) {
	defaults := defaultConfig()
	fromFlags := defaults

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&fromFlags.Address, "a", defaults.Address, "HTTP address to listen on")
	fs.StringVar(&fromFlags.MetricsPath, "p", defaults.MetricsPath, "Path serving the Prometheus scrape")
	fs.DurationVar(&fromFlags.Step, "step", defaults.Step, "Decay window of timers and summaries")
	fs.BoolVar(&fromFlags.Strict, "strict", defaults.Strict, "Fail conflicting meter registrations")
	fs.StringVar(&fromFlags.TrustedSubnet, "t", defaults.TrustedSubnet, "CIDR allowed to scrape (empty allows all)")
	fs.StringVar(&fromFlags.Key, "k", defaults.Key, "Key for signing responses")
	fs.StringVar(&fromFlags.LogLevel, "l", defaults.LogLevel, "Log level")
	fs.DurationVar(&fromFlags.RefreshInterval, "r", defaults.RefreshInterval, "Minimum interval between runtime stats reads")
	fs.StringVar(&fromFlags.configFile, "c", "", "Path to config file")
	fs.StringVar(&fromFlags.configFile, "config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := defaults
	cfg.configFile = configpkg.GetConfigFilePath(fromFlags.configFile)

	// Load JSON config if file is specified (lower priority than env/flags)
	if cfg.configFile != "" {
		var jsonCfg JSONConfig
		if err := configpkg.LoadConfigFile(cfg.configFile, &jsonCfg); err != nil {
			return Config{}, err
		}
		applyConfig(&cfg, &defaults, &jsonCfg)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}

	// Flags given explicitly win over everything else.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Address = fromFlags.Address
		case "p":
			cfg.MetricsPath = fromFlags.MetricsPath
		case "step":
			cfg.Step = fromFlags.Step
		case "strict":
			cfg.Strict = fromFlags.Strict
		case "t":
			cfg.TrustedSubnet = fromFlags.TrustedSubnet
		case "k":
			cfg.Key = fromFlags.Key
		case "l":
			cfg.LogLevel = fromFlags.LogLevel
		case "r":
			cfg.RefreshInterval = fromFlags.RefreshInterval
		}
	})

	return cfg, nil
}

// ConfigFile returns the path to config file if specified
func (c Config) ConfigFile() string {
	return c.configFile
}

// applyConfig applies config from JSON file
// Only applies values if the current value is still the default
func applyConfig(cfg, defaults *Config, jsonCfg *JSONConfig) {
	configpkg.ApplyStringIfDefault(&cfg.Address, defaults.Address, jsonCfg.Address)
	configpkg.ApplyStringIfDefault(&cfg.MetricsPath, defaults.MetricsPath, jsonCfg.MetricsPath)
	configpkg.ApplyDurationIfDefault(&cfg.Step, defaults.Step, jsonCfg.Step)
	configpkg.ApplyBoolIfDefault(&cfg.Strict, jsonCfg.Strict)
	configpkg.ApplyStringIfDefault(&cfg.TrustedSubnet, defaults.TrustedSubnet, jsonCfg.TrustedSubnet)
	configpkg.ApplyStringIfDefault(&cfg.Key, defaults.Key, jsonCfg.Key)
	configpkg.ApplyStringIfDefault(&cfg.LogLevel, defaults.LogLevel, jsonCfg.LogLevel)
	configpkg.ApplyDurationIfDefault(&cfg.RefreshInterval, defaults.RefreshInterval, jsonCfg.RefreshInterval)
}

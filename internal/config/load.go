package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LGABENCH_RUNS.
const EnvPrefix = "LGABENCH"

// Config is the resolved configuration of one invocation.
type Config struct {
	MaxExp     int
	MaxThreads int
	Runs       int
	Plot       bool

	BuildDir     string
	Executable   string
	BuildCommand string
	TrialTimeout time.Duration

	DataDir  string
	PlotsDir string

	MetricsAddr string
	Verbose     bool
	LogFile     string
	LogJSON     bool

	ArchiveType string
	ArchiveDSN  string

	// parseErrs holds values Current could not convert; Validate reports them.
	parseErrs []error
}

// SetDefaults registers the default of every key.
func SetDefaults() {
	viper.SetDefault("max_exp", 12)
	viper.SetDefault("max_threads", runtime.NumCPU())
	viper.SetDefault("runs", 100)
	viper.SetDefault("plot", false)
	viper.SetDefault("build_dir", "src")
	viper.SetDefault("executable", "./time_test")
	viper.SetDefault("build_command", "make")
	viper.SetDefault("trial_timeout", 0)
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("plots_dir", "plots")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("log_json", false)
	viper.SetDefault("archive.type", "")
	viper.SetDefault("archive.dsn", "")
}

// Load initializes the configuration from .env, an optional config file and
// environment variables. A missing default config file is not an error.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("lgabench")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	return nil
}

// Current snapshots the loaded viper state.
func Current() Config {
	timeout, err := durationOrSeconds("trial_timeout")
	cfg := Config{
		MaxExp:       viper.GetInt("max_exp"),
		MaxThreads:   viper.GetInt("max_threads"),
		Runs:         viper.GetInt("runs"),
		Plot:         viper.GetBool("plot"),
		BuildDir:     viper.GetString("build_dir"),
		Executable:   viper.GetString("executable"),
		BuildCommand: viper.GetString("build_command"),
		TrialTimeout: timeout,
		DataDir:      viper.GetString("data_dir"),
		PlotsDir:     viper.GetString("plots_dir"),
		MetricsAddr:  viper.GetString("metrics_addr"),
		Verbose:      viper.GetBool("verbose"),
		LogFile:      viper.GetString("log_file"),
		LogJSON:      viper.GetBool("log_json"),
		ArchiveType:  viper.GetString("archive.type"),
		ArchiveDSN:   viper.GetString("archive.dsn"),
	}
	if err != nil {
		cfg.parseErrs = append(cfg.parseErrs, err)
	}
	return cfg
}

// durationOrSeconds accepts both "90s" and a number of seconds such as 90 or 1.5.
func durationOrSeconds(key string) (time.Duration, error) {
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsInf(secs, 0) || math.IsNaN(secs) {
			return 0, fmt.Errorf("%s must be finite, got: %q", key, raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration or a number of seconds, got: %q", key, raw)
	}
	return d, nil
}

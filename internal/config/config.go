package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"submitbox/internal/ghactions"
	"submitbox/internal/submission"
	"submitbox/pkg/fileutil"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvName           = "PAYLOAD_NAME"
	EnvEmail          = "PAYLOAD_EMAIL"
	EnvResumeLink     = "PAYLOAD_RESUME_LINK"
	EnvRepositoryLink = "PAYLOAD_REPOSITORY_LINK"
	EnvRunID          = "GITHUB_RUN_ID"
	EnvSecret         = "PAYLOAD_WEBHOOK_SECRET"
	EnvTargetURL      = "PAYLOAD_TARGET_URL"
	EnvTimeout        = "PAYLOAD_TIMEOUT"
)

const (
	DefaultConfigName = "submitbox.yaml"
	DefaultEnvFile    = ".env"
	DefaultTimeout    = 30 * time.Second
)

// Config is the complete run configuration, built once at startup
type Config struct {
	Name           string
	Email          string
	ResumeLink     string
	RepositoryLink string
	RunID          string
	Secret         string
	TargetURL      string
	Timeout        time.Duration
}

// FileConfig represents the optional YAML configuration file
type FileConfig struct {
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	ResumeLink     string `yaml:"resume_link"`
	RepositoryLink string `yaml:"repository_link"`
	RunID          string `yaml:"run_id"`
	Secret         string `yaml:"webhook_secret"`
	TargetURL      string `yaml:"target_url"`
	Timeout        string `yaml:"timeout"`
}

// Options controls where configuration is read from
type Options struct {
	// ConfigFile is an explicit YAML file. When empty the default locations are searched.
	ConfigFile string
	// EnvFile is a dotenv file. When empty ./.env is used if it exists.
	EnvFile string
	// Flags may carry a "timeout" flag that overrides the environment.
	Flags *pflag.FlagSet
}

// MissingError lists required variables that were not provided
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Vars, ", "))
}

// Load reads configuration from, lowest precedence first: the YAML file,
// the dotenv file, the process environment and finally flags.
// It does not validate; call Validate before using the result.
func Load(opts Options) (*Config, error) {
	fileCfg, err := loadFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvName, fileCfg.Name)
	v.SetDefault(EnvEmail, fileCfg.Email)
	v.SetDefault(EnvResumeLink, fileCfg.ResumeLink)
	v.SetDefault(EnvRepositoryLink, fileCfg.RepositoryLink)
	v.SetDefault(EnvRunID, fileCfg.RunID)
	v.SetDefault(EnvSecret, fileCfg.Secret)
	v.SetDefault(EnvTargetURL, fileCfg.TargetURL)
	v.SetDefault(EnvTimeout, fileCfg.Timeout)

	if opts.Flags != nil {
		if flag := opts.Flags.Lookup("timeout"); flag != nil {
			if err := v.BindPFlag(EnvTimeout, flag); err != nil {
				return nil, fmt.Errorf("failed to bind timeout flag: %w", err)
			}
		}
	}

	timeout, err := ParseTimeout(v.GetString(EnvTimeout))
	if err != nil {
		return nil, err
	}

	return &Config{
		Name:           v.GetString(EnvName),
		Email:          v.GetString(EnvEmail),
		ResumeLink:     v.GetString(EnvResumeLink),
		RepositoryLink: v.GetString(EnvRepositoryLink),
		RunID:          v.GetString(EnvRunID),
		Secret:         v.GetString(EnvSecret),
		TargetURL:      v.GetString(EnvTargetURL),
		Timeout:        timeout,
	}, nil
}

// Validate checks that every required value is present. Formats are not checked.
func (c *Config) Validate() error {
	required := []struct {
		env   string
		value string
	}{
		{EnvName, c.Name},
		{EnvEmail, c.Email},
		{EnvResumeLink, c.ResumeLink},
		{EnvRepositoryLink, c.RepositoryLink},
		{EnvRunID, c.RunID},
		{EnvSecret, c.Secret},
		{EnvTargetURL, c.TargetURL},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.env)
		}
	}

	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return nil
}

// ActionRunLink is the repository link joined with the run ID
func (c *Config) ActionRunLink() string {
	return ghactions.RunLink(c.RepositoryLink, c.RunID)
}

// Fields returns the payload fields described by this configuration
func (c *Config) Fields() submission.Fields {
	return submission.Fields{
		Name:           c.Name,
		Email:          c.Email,
		ResumeLink:     c.ResumeLink,
		RepositoryLink: c.RepositoryLink,
		ActionRunLink:  c.ActionRunLink(),
	}
}

// ParseTimeout accepts a Go duration ("45s", "1m") or a bare number of seconds.
// An empty value yields DefaultTimeout.
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultTimeout, nil
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("invalid timeout %q: must be positive", value)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", value)
	}
	return d, nil
}

// SearchConfigPaths returns the locations checked for submitbox.yaml
func SearchConfigPaths() []string {
	return fileutil.DefaultConfigPaths(DefaultConfigName)
}

func loadFile(path string) (*FileConfig, error) {
	if path == "" {
		path = fileutil.SearchPathsOptional(SearchConfigPaths())
	}

	var cfg FileConfig
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}

	return &cfg, nil
}

// loadEnvFile populates the process environment from a dotenv file.
// Variables that are already set are left untouched.
func loadEnvFile(path string) error {
	if path == "" {
		if !fileutil.FileExists(DefaultEnvFile) {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Package config loads the bot configuration.
//
// Configuration comes from an optional YAML file. String values may refer to
// the environment with ${VAR} or ${VAR:-default}; a .env file can seed the
// environment first (see LoadEnv). Every key is optional:
//
//	bot_token: ${BOT_TOKEN:-}
//	api_base_url: https://api.telegram.org
//	poll_timeout: 100s
//	backoff: 2s
//	send_timeout: 10s
//	workers: 1
//	allowed_chats: [123456789]
//	commands: [start, help]
//	failure_notice: false
//	model_path: jobshield_model.yaml
//	vectorizer_path: jobshield_vectorizer.yaml
//	reload_interval: 0s
//	log_level: info
//	log_format: json
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
)

// TokenEnv is the environment variable consulted when the file sets no token.
const TokenEnv = "BOT_TOKEN"

const (
	minPollTimeout = time.Second
	maxPollTimeout = 10 * time.Minute
	minBackoff     = 100 * time.Millisecond
	maxBackoff     = time.Minute
	maxWorkers     = 32
)

// KnownCommands lists the command names that can be enabled.
var KnownCommands = []string{"start", "help", "status"}

// ErrNoToken means no source produced a bot token.
var ErrNoToken = errors.New("no bot token in config, environment or keychain")

// Config is the root configuration.
type Config struct {
	BotToken       string   `yaml:"bot_token"`
	APIBaseURL     string   `yaml:"api_base_url"`
	PollTimeout    Duration `yaml:"poll_timeout"`
	Backoff        Duration `yaml:"backoff"`
	SendTimeout    Duration `yaml:"send_timeout"`
	Workers        int      `yaml:"workers"`
	AllowedChats   []int64  `yaml:"allowed_chats"`
	Commands       []string `yaml:"commands"`
	FailureNotice  bool     `yaml:"failure_notice"`
	ModelPath      string   `yaml:"model_path"`
	VectorizerPath string   `yaml:"vectorizer_path"`

	// ReloadInterval is how often the artifacts are checked for changes.
	// Zero disables hot reload.
	ReloadInterval Duration `yaml:"reload_interval"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		APIBaseURL:     "https://api.telegram.org",
		PollTimeout:    Duration(core.DefaultPollTimeout),
		Backoff:        Duration(core.DefaultBackoff),
		SendTimeout:    Duration(core.DefaultSendTimeout),
		Workers:        1,
		Commands:       []string{"start"},
		ModelPath:      "jobshield_model.yaml",
		VectorizerPath: "jobshield_vectorizer.yaml",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadEnv loads variables from a .env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &core.ConfigurationError{Field: "env_file", Err: err}
	}
	return nil
}

// Load reads and parses a YAML configuration file. An empty path yields the
// validated defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.ConfigurationError{Field: "config", Err: fmt.Errorf("read config file: %w", err)}
	}
	return Parse(data)
}

// Parse parses YAML configuration data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &core.ConfigurationError{Field: "config", Err: fmt.Errorf("parse YAML: %w", err)}
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveToken fills BotToken when the file left it empty: first from
// BOT_TOKEN, then from keychainGet. keychainGet may be nil.
func (c *Config) ResolveToken(keychainGet func() (string, error)) error {
	if strings.TrimSpace(c.BotToken) != "" {
		c.BotToken = strings.TrimSpace(c.BotToken)
		return nil
	}
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		c.BotToken = v
		return nil
	}
	if keychainGet != nil {
		v, err := keychainGet()
		if err == nil && strings.TrimSpace(v) != "" {
			c.BotToken = strings.TrimSpace(v)
			return nil
		}
		if err != nil {
			return &core.ConfigurationError{Field: "bot_token", Err: fmt.Errorf("%w: keychain: %v", ErrNoToken, err)}
		}
	}
	return &core.ConfigurationError{Field: "bot_token", Err: ErrNoToken}
}

func (c *Config) expand() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"bot_token", &c.BotToken},
		{"api_base_url", &c.APIBaseURL},
		{"model_path", &c.ModelPath},
		{"vectorizer_path", &c.VectorizerPath},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return &core.ConfigurationError{Field: f.name, Err: err}
		}
		*f.ptr = expanded
	}
	return nil
}

func (c *Config) validate() error {
	invalid := func(field, format string, args ...any) error {
		return &core.ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return invalid("api_base_url", "invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("api_base_url", "url scheme must be http or https, got %q", u.Scheme)
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	if d := c.PollTimeout.Duration(); d < minPollTimeout || d > maxPollTimeout {
		return invalid("poll_timeout", "must be between %s and %s, got %s", minPollTimeout, maxPollTimeout, d)
	}
	if d := c.Backoff.Duration(); d < minBackoff || d > maxBackoff {
		return invalid("backoff", "must be between %s and %s, got %s", minBackoff, maxBackoff, d)
	}
	if d := c.SendTimeout.Duration(); d <= 0 {
		return invalid("send_timeout", "must be positive, got %s", d)
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return invalid("workers", "must be between 1 and %d, got %d", maxWorkers, c.Workers)
	}
	if d := c.ReloadInterval.Duration(); d < 0 {
		return invalid("reload_interval", "cannot be negative, got %s", d)
	}

	seen := make(map[string]struct{}, len(c.Commands))
	for i, name := range c.Commands {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(KnownCommands, name) {
			return invalid("commands", "unknown command %q (expected one of %s)", name, strings.Join(KnownCommands, ", "))
		}
		if _, dup := seen[name]; dup {
			return invalid("commands", "duplicate command %q", name)
		}
		seen[name] = struct{}{}
		c.Commands[i] = name
	}
	if _, ok := seen["start"]; !ok {
		return invalid("commands", "start must be enabled")
	}

	if c.ModelPath == "" {
		return invalid("model_path", "is required")
	}
	if c.VectorizerPath == "" {
		return invalid("vectorizer_path", "is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level", "must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return invalid("log_format", "must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
// Group 1 is the name, group 2 the ":-default" part, group 3 the default.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		value, exists := os.LookupEnv(name)
		if !exists {
			if hasDefault {
				return sub[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", name)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

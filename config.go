package cmdparse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mwantia/cmdparse/log"
	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable LoadConfigFromEnv reads.
const ConfigEnv = "CMDPARSE_CONFIG"

// Setting quote_aliases.default to this value selects DefaultQuoteAliases.
const extendedQuoteAliases = "extended"

// CommandServiceConfig is the file form of the service options.
type CommandServiceConfig struct {
	CaseSensitiveCommands bool              `toml:"case_sensitive_commands" yaml:"case_sensitive_commands"`
	SeparatorChar         string            `toml:"separator_char" yaml:"separator_char"`
	IgnoreExtraArgs       bool              `toml:"ignore_extra_args" yaml:"ignore_extra_args"`
	MultiMatchHandling    string            `toml:"multi_match_handling" yaml:"multi_match_handling"`
	QuoteAliases          map[string]string `toml:"quote_aliases" yaml:"quote_aliases"`

	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogFile       string `toml:"log_file" yaml:"log_file"`
	NoTerminalLog bool   `toml:"no_terminal_log" yaml:"no_terminal_log"`
	LogJSON       bool   `toml:"log_json" yaml:"log_json"`
}

// LoadConfig reads a .toml, .yaml or .yml config file.
func LoadConfig(path string) (*CommandServiceConfig, error) {
	path = os.ExpandEnv(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &CommandServiceConfig{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(raw), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format '%s'", ext)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfigFromEnv loads the file named by CMDPARSE_CONFIG. Without the
// variable it returns the default config.
func LoadConfigFromEnv() (*CommandServiceConfig, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		cfg := &CommandServiceConfig{}
		cfg.applyDefaults()
		return cfg, nil
	}
	return LoadConfig(path)
}

func (c *CommandServiceConfig) applyDefaults() {
	if c.SeparatorChar == "" {
		c.SeparatorChar = " "
	}
	if c.MultiMatchHandling == "" {
		c.MultiMatchHandling = MultiMatchException.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = log.Info.String()
	}
}

func (c *CommandServiceConfig) apply(opts *CommandServiceOptions) error {
	level, err := log.Parse(c.LogLevel)
	if err != nil {
		return err
	}
	handling, err := ParseMultiMatchHandling(c.MultiMatchHandling)
	if err != nil {
		return err
	}

	separator := []rune(c.SeparatorChar)
	if len(separator) > 1 {
		return fmt.Errorf("separator char must be a single character, got '%s'", c.SeparatorChar)
	}
	if len(separator) == 1 {
		opts.SeparatorChar = separator[0]
	}

	quotes, err := c.quoteAliases()
	if err != nil {
		return err
	}
	if quotes != nil {
		opts.QuoteAliases = quotes
	}

	opts.CaseSensitiveCommands = c.CaseSensitiveCommands
	opts.IgnoreExtraArgs = c.IgnoreExtraArgs
	opts.MultiMatchHandling = handling
	opts.LogLevel = level
	opts.LogFile = c.LogFile
	opts.NoTerminalLog = c.NoTerminalLog
	opts.LogJSON = c.LogJSON

	return nil
}

func (c *CommandServiceConfig) quoteAliases() (QuoteAliasMap, error) {
	if len(c.QuoteAliases) == 0 {
		return nil, nil
	}

	pairs := make(map[string]string, len(c.QuoteAliases))
	var quotes QuoteAliasMap
	for open, closing := range c.QuoteAliases {
		if open == "default" {
			if closing != extendedQuoteAliases {
				return nil, fmt.Errorf("unknown quote alias set '%s'", closing)
			}
			quotes = DefaultQuoteAliases()
			continue
		}
		pairs[open] = closing
	}

	custom, ok := QuoteAliasesFromStrings(pairs)
	if !ok {
		return nil, fmt.Errorf("quote aliases must map single characters")
	}
	if quotes == nil {
		return custom, nil
	}
	for open, closing := range custom {
		quotes[open] = closing
	}
	return quotes, nil
}

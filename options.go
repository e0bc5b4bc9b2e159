package cmdparse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mwantia/cmdparse/log"
)

type ParserOption func(*Parser)

// WithParserQuotes sets the quote pairs recognized by the parser.
func WithParserQuotes(quotes QuoteAliasMap) ParserOption {
	return func(p *Parser) {
		p.quotes = quotes.Clone()
	}
}

func WithParserIgnoreExtraArgs(ignore bool) ParserOption {
	return func(p *Parser) {
		p.ignoreExtraArgs = ignore
	}
}

func WithConverter(convert Converter) ParserOption {
	return func(p *Parser) {
		if convert != nil {
			p.convert = convert
		}
	}
}

func WithParserLogger(logger *log.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// MultiMatchHandling decides what happens to arguments that matched more
// than one value.
type MultiMatchHandling int

const (
	// MultiMatchException fails the command with ErrorMultipleMatches.
	MultiMatchException MultiMatchHandling = iota
	// MultiMatchBest binds the highest scored value.
	MultiMatchBest
)

func (m MultiMatchHandling) String() string {
	switch m {
	case MultiMatchBest:
		return "best"
	default:
		return "exception"
	}
}

func ParseMultiMatchHandling(s string) (MultiMatchHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exception":
		return MultiMatchException, nil
	case "best":
		return MultiMatchBest, nil
	default:
		return MultiMatchException, fmt.Errorf("invalid multi match handling '%s'", s)
	}
}

type CommandServiceOptions struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	LogJSON       bool
	Logger        *log.Logger

	QuoteAliases          QuoteAliasMap
	IgnoreExtraArgs       bool
	CaseSensitiveCommands bool
	SeparatorChar         rune
	MultiMatchHandling    MultiMatchHandling
}

type ServiceOption func(*CommandServiceOptions) error

func newDefaultCommandServiceOptions() *CommandServiceOptions {
	return &CommandServiceOptions{
		LogLevel:           log.Info,
		SeparatorChar:      ' ',
		MultiMatchHandling: MultiMatchException,
	}
}

func WithLogLevel(logLevel log.LogLevel) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.LogFile = logFile
		return nil
	}
}

// WithLogger uses logger instead of building one from the log options.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.Logger = logger
		return nil
	}
}

func WithQuoteAliases(quotes QuoteAliasMap) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.QuoteAliases = quotes.Clone()
		return nil
	}
}

func WithIgnoreExtraArgs(ignore bool) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.IgnoreExtraArgs = ignore
		return nil
	}
}

func WithCaseSensitiveCommands(caseSensitive bool) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.CaseSensitiveCommands = caseSensitive
		return nil
	}
}

// WithSeparatorChar sets the character that joins the words of a command name.
func WithSeparatorChar(separator rune) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		if separator == 0 || (!unicode.IsSpace(separator) && !unicode.IsPrint(separator)) {
			return fmt.Errorf("invalid separator char %q", separator)
		}
		opts.SeparatorChar = separator
		return nil
	}
}

func WithMultiMatchHandling(handling MultiMatchHandling) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		opts.MultiMatchHandling = handling
		return nil
	}
}

// WithConfig applies all settings of a loaded config file.
func WithConfig(cfg *CommandServiceConfig) ServiceOption {
	return func(opts *CommandServiceOptions) error {
		if cfg == nil {
			return nil
		}
		return cfg.apply(opts)
	}
}

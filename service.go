package cmdparse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/log"
	"github.com/mwantia/cmdparse/reader"
	"github.com/tidwall/btree"
	"golang.org/x/text/cases"
)

// CommandService registers commands and executes input lines against them.
type CommandService struct {
	mu sync.RWMutex

	log      *log.Logger
	options  *CommandServiceOptions
	commands *btree.Map[string, []*CommandInfo]
	readers  map[string]reader.TypeReader

	strict  *Parser
	lenient *Parser
}

// SearchMatch is a command whose name or alias prefixes an input line.
type SearchMatch struct {
	Command *CommandInfo
	Alias   string
	// ArgStart is the byte offset of the argument text in the input
	ArgStart int
}

// ExecuteResult reports one call of Execute.
type ExecuteResult struct {
	ID       string
	Command  *CommandInfo
	Args     []any
	Value    any
	Duration time.Duration

	// Error is nil on success
	Error *data.CommandError
	// Cause is the error returned by the handler, if any
	Cause error
}

func (r *ExecuteResult) IsSuccess() bool {
	return r.Error == nil
}

func (r *ExecuteResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

func NewCommandService(opts ...ServiceOption) (*CommandService, error) {
	options := newDefaultCommandServiceOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.NewLogger("cmdparse", options.LogLevel, options.LogFile, options.NoTerminalLog)
		logger.JSON = options.LogJSON
	}

	parserOpts := []ParserOption{
		WithParserQuotes(options.QuoteAliases),
		WithParserLogger(logger.Named("parser")),
	}

	return &CommandService{
		log:      logger,
		options:  options,
		commands: btree.NewMap[string, []*CommandInfo](0),
		readers:  reader.Defaults(),

		strict:  NewParser(append(parserOpts, WithParserIgnoreExtraArgs(false))...),
		lenient: NewParser(append(parserOpts, WithParserIgnoreExtraArgs(true))...),
	}, nil
}

// AddTypeReader registers r for parameters with the given type tag. Commands
// added afterwards pick it up; registered commands keep their readers.
func (s *CommandService) AddTypeReader(typeName string, r reader.TypeReader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readers[typeName] = r
}

// AddCommand validates cmd, resolves readers for its parameters and
// registers it under its name and aliases.
func (s *CommandService) AddCommand(cmd *CommandInfo) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	registered := *cmd
	registered.Aliases = append([]string(nil), cmd.Aliases...)
	registered.Parameters = make([]*ParameterInfo, 0, len(cmd.Parameters))
	for _, param := range cmd.Parameters {
		resolved := *param
		if resolved.Reader == nil {
			r, exists := s.readers[param.Type]
			if !exists {
				return fmt.Errorf("%w: '%s' of type %s in '%s'", data.ErrMissingReader, param.Name, param.Type, cmd.Name)
			}
			resolved.Reader = r
		}
		if typed, ok := resolved.Reader.(reader.TypedReader); ok && !resolved.accepts(typed.ValueType()) {
			return fmt.Errorf("%w: '%s' of type %s in '%s' reads %s", data.ErrReaderMismatch, param.Name, resolved.valueType, cmd.Name, typed.ValueType())
		}
		registered.Parameters = append(registered.Parameters, &resolved)
	}

	signature := registered.Signature()
	for _, name := range registered.Names() {
		overloads, _ := s.commands.Get(s.key(name))
		for _, existing := range overloads {
			if existing.Signature() == signature {
				return fmt.Errorf("%w: %s", data.ErrDuplicateCommand, signature)
			}
		}
	}

	for _, name := range registered.Names() {
		key := s.key(name)
		overloads, _ := s.commands.Get(key)
		overloads = append(overloads, &registered)
		sort.SliceStable(overloads, func(i, j int) bool {
			return overloads[i].Priority > overloads[j].Priority
		})
		s.commands.Set(key, overloads)
	}

	s.log.With("command", registered.Name).Debug("registered %s", signature)
	return nil
}

// RemoveCommand removes every overload whose primary name is name.
func (s *CommandService) RemoveCommand(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(name)
	overloads, exists := s.commands.Get(key)
	if !exists {
		return false
	}

	removed := false
	for _, cmd := range overloads {
		if s.key(cmd.Name) != key {
			continue
		}
		for _, alias := range cmd.Names() {
			s.removeOverload(s.key(alias), cmd)
		}
		removed = true
		s.log.With("command", cmd.Name).Debug("removed %s", cmd.Signature())
	}

	return removed
}

func (s *CommandService) removeOverload(key string, cmd *CommandInfo) {
	overloads, exists := s.commands.Get(key)
	if !exists {
		return
	}

	kept := overloads[:0:0]
	for _, existing := range overloads {
		if existing != cmd {
			kept = append(kept, existing)
		}
	}

	if len(kept) == 0 {
		s.commands.Delete(key)
	} else {
		s.commands.Set(key, kept)
	}
}

// Commands returns all registered commands ordered by name, then priority.
func (s *CommandService) Commands() []*CommandInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[*CommandInfo]struct{})
	commands := make([]*CommandInfo, 0, s.commands.Len())
	s.commands.Scan(func(_ string, overloads []*CommandInfo) bool {
		for _, cmd := range overloads {
			if _, exists := seen[cmd]; !exists {
				seen[cmd] = struct{}{}
				commands = append(commands, cmd)
			}
		}
		return true
	})

	sort.SliceStable(commands, func(i, j int) bool {
		if commands[i].Name != commands[j].Name {
			return commands[i].Name < commands[j].Name
		}
		return commands[i].Priority > commands[j].Priority
	})

	return commands
}

// Search returns the commands whose name or alias starts the input, the
// longest name first and higher priority first among equal names.
func (s *CommandService) Search(input string) []SearchMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := 0
	for offset < len(input) {
		r, size := utf8.DecodeRuneInString(input[offset:])
		if !unicode.IsSpace(r) {
			break
		}
		offset += size
	}

	var matches []SearchMatch
	collect := func(end, argStart int) {
		alias := input[offset:end]
		overloads, _ := s.commands.Get(s.key(alias))
		for _, cmd := range overloads {
			matches = append(matches, SearchMatch{
				Command:  cmd,
				Alias:    alias,
				ArgStart: argStart,
			})
		}
	}

	for i, r := range input[offset:] {
		if i == 0 {
			continue
		}
		switch {
		case unicode.IsSpace(r):
			collect(offset+i, offset+i)
		case r == s.options.SeparatorChar:
			collect(offset+i, offset+i+utf8.RuneLen(r))
		}
	}
	if offset < len(input) {
		collect(len(input), len(input))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if len(matches[i].Alias) != len(matches[j].Alias) {
			return len(matches[i].Alias) > len(matches[j].Alias)
		}
		return matches[i].Command.Priority > matches[j].Command.Priority
	})

	return matches
}

// Execute finds the command named by input, parses its arguments and runs
// its handler. Overloads are tried in order until one parses; if none does,
// the failure of the first is reported.
//
// Failures are reported in the result. The error return is reserved for a
// cancelled context or an aborted conversion.
func (s *CommandService) Execute(ctx context.Context, input string) (*ExecuteResult, error) {
	matches := s.Search(input)
	if len(matches) == 0 {
		s.log.Debug("unknown command in '%s'", input)
		return &ExecuteResult{
			Error: data.NewCommandError(data.ErrorUnknownCommand, "Unknown command."),
		}, nil
	}

	var failed *ExecuteResult
	for _, match := range matches {
		cmd := match.Command

		parsed, err := s.parserFor(cmd).Parse(ctx, cmd.Parameters, input, match.ArgStart)
		if err != nil {
			return nil, err
		}

		cmdErr := parsed.Error
		var args []any
		if cmdErr == nil {
			args, cmdErr = s.bind(cmd, parsed)
		}

		if cmdErr != nil {
			s.log.With("command", cmd.Name).Debug("overload %s rejected: %v", cmd.Signature(), cmdErr)
			if failed == nil {
				failed = &ExecuteResult{Command: cmd, Error: cmdErr}
			}
			continue
		}

		return s.invoke(ctx, cmd, input, args)
	}

	return failed, nil
}

func (s *CommandService) parserFor(cmd *CommandInfo) *Parser {
	ignore := s.options.IgnoreExtraArgs
	if cmd.IgnoreExtraArgs != nil {
		ignore = *cmd.IgnoreExtraArgs
	}
	if ignore {
		return s.lenient
	}
	return s.strict
}

// bind turns parse results into one handler argument per parameter.
func (s *CommandService) bind(cmd *CommandInfo, parsed *ParseResult) ([]any, *data.CommandError) {
	args := make([]any, 0, len(cmd.Parameters))
	for i, result := range parsed.ArgValues {
		param := cmd.Parameters[i]
		value, err := s.resolve(result, param)
		if err != nil {
			return nil, err
		}
		if !param.IsGreedy {
			if err := param.checkValue(value); err != nil {
				return nil, param.typeError(err)
			}
		}
		args = append(args, value)
	}

	if len(args) < len(cmd.Parameters) {
		param := cmd.Parameters[len(cmd.Parameters)-1]
		if param.IsMultiple {
			values := make([]any, 0, len(parsed.ParamValues))
			for _, result := range parsed.ParamValues {
				value, err := s.resolve(result, param)
				if err != nil {
					return nil, err
				}
				values = append(values, value)
			}
			seq, err := param.Sequence(values)
			if err != nil {
				return nil, param.typeError(err)
			}
			args = append(args, seq)
		}
	}

	return args, nil
}

// resolve settles an ambiguous result according to the multi match handling.
func (s *CommandService) resolve(result data.TypeReaderResult, param *ParameterInfo) (any, *data.CommandError) {
	if result.IsAmbiguous() && s.options.MultiMatchHandling == MultiMatchException {
		err := data.NewCommandError(data.ErrorMultipleMatches, "Multiple matches found.")
		err.Parameter = param.Name
		return nil, err
	}
	return result.BestMatch(), nil
}

func (s *CommandService) invoke(ctx context.Context, cmd *CommandInfo, input string, args []any) (*ExecuteResult, error) {
	cc := &CommandContext{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Command: cmd,
		Input:   input,
		Args:    args,
	}
	logger := s.log.With("command", cmd.Name).With("id", cc.ID)

	start := time.Now()
	value, err := cmd.Handler(ctx, cc)
	result := &ExecuteResult{
		ID:       cc.ID,
		Command:  cmd,
		Args:     args,
		Value:    value,
		Duration: time.Since(start),
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		var cmdErr *data.CommandError
		if !errors.As(err, &cmdErr) {
			cmdErr = data.NewCommandError(data.ErrorException, "%v", err)
		}
		result.Error = cmdErr
		result.Cause = err

		logger.Warn("failed after %s: %v", result.Duration, err)
		return result, nil
	}

	logger.Debug("executed in %s", result.Duration)
	return result, nil
}

// key normalizes a command name for lookups.
func (s *CommandService) key(name string) string {
	if s.options.CaseSensitiveCommands {
		return name
	}
	return cases.Fold().String(name)
}

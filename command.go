package cmdparse

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/cmdparse/data"
)

// CommandHandler runs a command with its bound arguments. The returned value
// is passed back to the caller in the ExecuteResult.
type CommandHandler func(ctx context.Context, cc *CommandContext) (any, error)

// CommandInfo declares a command and its parameter signature. Several
// commands may share a name; they are tried as overloads by priority.
type CommandInfo struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Priority int      `json:"priority"`

	// IgnoreExtraArgs overrides the service setting when not nil.
	IgnoreExtraArgs *bool `json:"ignore_extra_args,omitempty"`

	Parameters []*ParameterInfo `json:"parameters"`
	Handler    CommandHandler   `json:"-"`
}

type CommandOption func(*CommandInfo)

func NewCommand(name string, handler CommandHandler, opts ...CommandOption) *CommandInfo {
	cmd := &CommandInfo{
		Name:    name,
		Handler: handler,
	}

	for _, opt := range opts {
		opt(cmd)
	}

	return cmd
}

func WithAliases(aliases ...string) CommandOption {
	return func(cmd *CommandInfo) {
		cmd.Aliases = append(cmd.Aliases, aliases...)
	}
}

func WithCommandSummary(summary string) CommandOption {
	return func(cmd *CommandInfo) {
		cmd.Summary = summary
	}
}

func WithPriority(priority int) CommandOption {
	return func(cmd *CommandInfo) {
		cmd.Priority = priority
	}
}

func WithCommandIgnoreExtraArgs(ignore bool) CommandOption {
	return func(cmd *CommandInfo) {
		cmd.IgnoreExtraArgs = &ignore
	}
}

func WithParameters(params ...*ParameterInfo) CommandOption {
	return func(cmd *CommandInfo) {
		cmd.Parameters = append(cmd.Parameters, params...)
	}
}

// Names returns the name followed by all aliases.
func (c *CommandInfo) Names() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Usage renders the command name and its parameters, e.g. "greet user: *data.Entity [times: int = 1]".
func (c *CommandInfo) Usage() string {
	parts := []string{c.Name}
	for _, param := range c.Parameters {
		parts = append(parts, param.String())
	}
	return strings.Join(parts, " ")
}

// Signature identifies an overload by its name and parameter types.
func (c *CommandInfo) Signature() string {
	types := make([]string, 0, len(c.Parameters))
	for _, param := range c.Parameters {
		types = append(types, param.String())
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(types, ", "))
}

// Validate checks that the command can be parsed and invoked.
func (c *CommandInfo) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: command cannot be nil", data.ErrInvalidSignature)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: command name cannot be empty", data.ErrInvalidSignature)
	}
	if c.Handler == nil {
		return fmt.Errorf("%w: command '%s' has no handler", data.ErrInvalidSignature, c.Name)
	}

	names := make(map[string]struct{}, len(c.Parameters))
	for i, param := range c.Parameters {
		if param == nil || param.Name == "" {
			return fmt.Errorf("%w: parameter %d of '%s' has no name", data.ErrInvalidSignature, i, c.Name)
		}
		if _, exists := names[param.Name]; exists {
			return fmt.Errorf("%w: duplicate parameter '%s' in '%s'", data.ErrInvalidSignature, param.Name, c.Name)
		}
		names[param.Name] = struct{}{}

		last := i == len(c.Parameters)-1
		if param.IsRemainder && !last {
			return fmt.Errorf("%w: remainder parameter '%s' must be the last one", data.ErrInvalidSignature, param.Name)
		}
		if param.IsMultiple && !last {
			return fmt.Errorf("%w: multiple parameter '%s' must be the last one", data.ErrInvalidSignature, param.Name)
		}
		if param.IsOptional && !param.IsGreedy && !param.IsMultiple {
			if err := param.checkValue(param.DefaultValue); err != nil {
				return fmt.Errorf("%w: default of '%s' in '%s': %v", data.ErrInvalidSignature, param.Name, c.Name, err)
			}
		}
	}

	return nil
}

// CommandContext carries one invocation to its handler.
type CommandContext struct {
	// ID identifies this execution in logs
	ID      string
	Command *CommandInfo
	Input   string

	// One value per declared parameter. A multiple parameter holds a []T.
	Args []any
}

// Arg returns the argument at index i as T, or the zero value if it has another type.
func Arg[T any](cc *CommandContext, i int) T {
	var zero T
	if i < 0 || i >= len(cc.Args) {
		return zero
	}
	if v, ok := cc.Args[i].(T); ok {
		return v
	}
	return zero
}

// Named returns the argument bound to the parameter called name.
func (cc *CommandContext) Named(name string) (any, bool) {
	for i, param := range cc.Command.Parameters {
		if param.Name == name && i < len(cc.Args) {
			return cc.Args[i], true
		}
	}
	return nil, false
}

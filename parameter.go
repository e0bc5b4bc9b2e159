package cmdparse

import (
	"fmt"
	"reflect"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/reader"
)

// ParameterInfo describes one declared parameter of a command signature.
// It is built once and never modified afterwards.
type ParameterInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Summary string `json:"summary,omitempty"`

	IsOptional  bool `json:"optional"`
	IsRemainder bool `json:"remainder"`
	IsGreedy    bool `json:"greedy"`
	IsMultiple  bool `json:"multiple"`

	DefaultValue any `json:"default,omitempty"`

	// Reader converts tokens for this parameter. A command service fills it
	// from its reader table when left nil.
	Reader reader.TypeReader `json:"-"`

	valueType reflect.Type
	sequence  func([]any) (any, error)
}

type ParameterOption func(*ParameterInfo)

// NewParameter declares a parameter whose values are of type T. Greedy and
// multiple parameters collect their values into a []T.
func NewParameter[T any](name string, opts ...ParameterOption) *ParameterInfo {
	param := &ParameterInfo{
		Name:     name,
		Type:      reflect.TypeFor[T]().String(),
		valueType: reflect.TypeFor[T](),
		sequence:  sequenceOf[T],
	}

	for _, opt := range opts {
		opt(param)
	}

	return param
}

func sequenceOf[T any](values []any) (any, error) {
	seq := make([]T, 0, len(values))
	for i, v := range values {
		if v == nil && nillable(reflect.TypeFor[T]()) {
			var zero T
			seq = append(seq, zero)
			continue
		}

		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("value %d is %T, not %s", i, v, reflect.TypeFor[T]())
		}
		seq = append(seq, t)
	}
	return seq, nil
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// Sequence converts collected values into the parameter's []T. It fails if
// any value is not a T.
func (p *ParameterInfo) Sequence(values []any) (any, error) {
	if p.sequence == nil {
		return values, nil
	}
	return p.sequence(values)
}

// sequenceResult is Sequence reported as a parse result.
func (p *ParameterInfo) sequenceResult(values []any) (data.TypeReaderResult, *data.CommandError) {
	seq, err := p.Sequence(values)
	if err != nil {
		return data.TypeReaderResult{}, p.typeError(err)
	}
	return data.FromSuccess(seq), nil
}

// checkValue reports a single value that cannot be bound to the parameter.
// Parameters built without NewParameter accept anything.
func (p *ParameterInfo) checkValue(v any) error {
	if p.valueType == nil {
		return nil
	}
	if v == nil {
		if nillable(p.valueType) {
			return nil
		}
		return fmt.Errorf("value is nil, not %s", p.valueType)
	}
	if !reflect.TypeOf(v).AssignableTo(p.valueType) {
		return fmt.Errorf("value is %T, not %s", v, p.valueType)
	}
	return nil
}

// accepts reports whether values of type t can be bound to the parameter.
func (p *ParameterInfo) accepts(t reflect.Type) bool {
	return p.valueType == nil || t.AssignableTo(p.valueType)
}

func (p *ParameterInfo) typeError(err error) *data.CommandError {
	cmdErr := data.NewCommandError(data.ErrorException, "Parameter '%s' received a value of the wrong type: %v.", p.Name, err)
	cmdErr.Parameter = p.Name
	return cmdErr
}

func (p *ParameterInfo) String() string {
	switch {
	case p.IsRemainder:
		return fmt.Sprintf("%s: %s...", p.Name, p.Type)
	case p.IsGreedy, p.IsMultiple:
		return fmt.Sprintf("%s: []%s", p.Name, p.Type)
	case p.IsOptional:
		return fmt.Sprintf("[%s: %s = %v]", p.Name, p.Type, p.DefaultValue)
	default:
		return fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
}

// Optional lets the parameter be skipped, leaving defaultValue in its slot.
func Optional(defaultValue any) ParameterOption {
	return func(p *ParameterInfo) {
		p.IsOptional = true
		p.DefaultValue = defaultValue
	}
}

// Greedy consumes tokens for as long as they convert.
func Greedy() ParameterOption {
	return func(p *ParameterInfo) {
		p.IsGreedy = true
	}
}

// Remainder consumes the rest of the input verbatim.
func Remainder() ParameterOption {
	return func(p *ParameterInfo) {
		p.IsRemainder = true
	}
}

// Multiple accepts any number of tokens in the same slot.
func Multiple() ParameterOption {
	return func(p *ParameterInfo) {
		p.IsMultiple = true
	}
}

func WithReader(r reader.TypeReader) ParameterOption {
	return func(p *ParameterInfo) {
		p.Reader = r
	}
}

func WithSummary(summary string) ParameterOption {
	return func(p *ParameterInfo) {
		p.Summary = summary
	}
}

// WithTypeName overrides the type tag used to look up a reader.
func WithTypeName(name string) ParameterOption {
	return func(p *ParameterInfo) {
		p.Type = name
	}
}

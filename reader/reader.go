package reader

import (
	"context"
	"reflect"

	"github.com/mwantia/cmdparse/data"
)

// TypeReader converts the raw text of one token into a typed value.
//
// A conversion failure is reported through the result. The returned error is
// reserved for failures that must abort the whole parse, such as a cancelled
// context or an unreachable backend.
type TypeReader interface {
	Read(ctx context.Context, input string) (data.TypeReaderResult, error)
}

// TypeReaderFunc adapts a function to the TypeReader interface.
type TypeReaderFunc func(ctx context.Context, input string) (data.TypeReaderResult, error)

func (f TypeReaderFunc) Read(ctx context.Context, input string) (data.TypeReaderResult, error) {
	return f(ctx, input)
}

// TypedReader is a TypeReader that declares the Go type of its values, so
// that a mismatch with a parameter is found when the command is registered.
type TypedReader interface {
	TypeReader
	ValueType() reflect.Type
}

type typedReaderFunc[T any] struct {
	TypeReaderFunc
}

func (typedReaderFunc[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Func returns fn as a reader whose successful values are of type T.
func Func[T any](fn TypeReaderFunc) TypedReader {
	return typedReaderFunc[T]{fn}
}

// Type names under which the built-in readers are registered.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeInt64    = "int64"
	TypeFloat64  = "float64"
	TypeBool     = "bool"
	TypeDuration = "time.Duration"
	TypeUUID     = "uuid.UUID"
)

// Defaults returns a fresh table of the built-in readers keyed by type name.
func Defaults() map[string]TypeReader {
	return map[string]TypeReader{
		TypeString:   String(),
		TypeInt:      Int(),
		TypeInt64:    Int64(),
		TypeFloat64:  Float64(),
		TypeBool:     Bool(),
		TypeDuration: Duration(),
		TypeUUID:     UUID(),
	}
}

package cmdparse_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mwantia/cmdparse"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/log"
	"github.com/mwantia/cmdparse/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(name string, opts ...cmdparse.ParameterOption) *cmdparse.ParameterInfo {
	return cmdparse.NewParameter[string](name, append(opts, cmdparse.WithReader(reader.String()))...)
}

func num(name string, opts ...cmdparse.ParameterOption) *cmdparse.ParameterInfo {
	return cmdparse.NewParameter[int](name, append(opts, cmdparse.WithReader(reader.Int()))...)
}

func parse(t *testing.T, params []*cmdparse.ParameterInfo, input string, opts ...cmdparse.ParserOption) *cmdparse.ParseResult {
	t.Helper()

	result, err := cmdparse.NewParser(opts...).Parse(t.Context(), params, input, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func bestMatches(results []data.TypeReaderResult) []any {
	values := make([]any, 0, len(results))
	for _, r := range results {
		values = append(values, r.BestMatch())
	}
	return values
}

func requireSuccess(t *testing.T, result *cmdparse.ParseResult) {
	t.Helper()
	require.True(t, result.IsSuccess(), "unexpected failure: %v", result.Error)
	require.NoError(t, result.Err())
}

func requireFailure(t *testing.T, result *cmdparse.ParseResult, kind data.ErrorKind) {
	t.Helper()
	require.False(t, result.IsSuccess(), "expected %s", kind)
	assert.Equal(t, kind, result.Error.Kind, result.Error.Reason)
	assert.ErrorIs(t, result.Err(), kind.Err())
}

func TestParse_Tokens(t *testing.T) {
	tests := []struct {
		name   string
		params []*cmdparse.ParameterInfo
		input  string
		want   []any
	}{
		{"positional", []*cmdparse.ParameterInfo{str("a"), str("b"), str("c")}, "x y z", []any{"x", "y", "z"}},
		{"surrounding whitespace", []*cmdparse.ParameterInfo{str("a"), str("b")}, "  x \t y  ", []any{"x", "y"}},
		{"quoted", []*cmdparse.ParameterInfo{str("a"), str("b")}, `"a b" c`, []any{"a b", "c"}},
		{"empty quoted", []*cmdparse.ParameterInfo{str("a"), str("b")}, `"" c`, []any{"", "c"}},
		{"escaped quote", []*cmdparse.ParameterInfo{str("a")}, `a\"b`, []any{`a"b`}},
		{"kept backslash", []*cmdparse.ParameterInfo{str("a")}, `C:\temp`, []any{`C:\temp`}},
		{"escape starts token", []*cmdparse.ParameterInfo{str("a")}, `\"quoted\"`, []any{`"quoted"`}},
		{"escaped quote inside quotes", []*cmdparse.ParameterInfo{str("a")}, `"say \"hi\""`, []any{`say "hi"`}},
		{"escaped whitespace", []*cmdparse.ParameterInfo{str("a"), str("b")}, `a\ b c`, []any{`a\ b`, "c"}},
		{"quote inside token", []*cmdparse.ParameterInfo{str("a")}, `a"b"`, []any{`a"b"`}},
		{"unicode", []*cmdparse.ParameterInfo{str("a"), num("b")}, "héllo 42", []any{"héllo", 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.params, tt.input)
			requireSuccess(t, result)
			assert.Equal(t, tt.want, bestMatches(result.ArgValues))
			assert.Empty(t, result.ParamValues)
		})
	}
}

func TestParse_StartPosition(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a"), str("b")}
	parser := cmdparse.NewParser()

	input := `foo "a b" c`
	result, err := parser.Parse(t.Context(), params, input, len("foo"))
	require.NoError(t, err)
	requireSuccess(t, result)
	assert.Equal(t, []any{"a b", "c"}, bestMatches(result.ArgValues))

	for _, pos := range []int{-1, len(input) + 1} {
		result, err = parser.Parse(t.Context(), params, input, pos)
		require.NoError(t, err)
		requireFailure(t, result, data.ErrorParseFailed)
	}

	// Inside a multi-byte rune
	result, err = parser.Parse(t.Context(), []*cmdparse.ParameterInfo{str("a")}, "é", 1)
	require.NoError(t, err)
	requireFailure(t, result, data.ErrorParseFailed)
}

func TestParse_Greedy(t *testing.T) {
	params := []*cmdparse.ParameterInfo{num("numbers", cmdparse.Greedy()), str("rest")}

	result := parse(t, params, "1 2 3 x")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{1, 2, 3}, "x"}, bestMatches(result.ArgValues))

	// A failing first token leaves an empty sequence and is retried
	result = parse(t, params, "x")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{}, "x"}, bestMatches(result.ArgValues))

	// Greedy collection wrapped up at end of input, trailing parameter missing
	result = parse(t, params, "1 2")
	requireFailure(t, result, data.ErrorBadArgCount)
	assert.Equal(t, "rest", result.Error.Parameter)
}

func TestParse_GreedyMissing(t *testing.T) {
	result := parse(t, []*cmdparse.ParameterInfo{num("numbers", cmdparse.Greedy())}, "")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{}}, bestMatches(result.ArgValues))

	result = parse(t, []*cmdparse.ParameterInfo{num("numbers", cmdparse.Greedy())}, "4 5")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{4, 5}}, bestMatches(result.ArgValues))
}

// A parameter that is both optional and greedy takes the greedy fallback
// path: a failing token yields the collected sequence, not the default.
func TestParse_OptionalGreedy(t *testing.T) {
	params := []*cmdparse.ParameterInfo{
		num("numbers", cmdparse.Optional([]int{9}), cmdparse.Greedy()),
		str("rest"),
	}

	result := parse(t, params, "x")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{}, "x"}, bestMatches(result.ArgValues))

	result = parse(t, params[:1], "")
	requireSuccess(t, result)
	assert.Equal(t, []any{[]int{9}}, bestMatches(result.ArgValues))
}

func TestParse_OptionalFallback(t *testing.T) {
	params := []*cmdparse.ParameterInfo{num("count", cmdparse.Optional(5)), str("name")}

	result := parse(t, params, "abc")
	requireSuccess(t, result)
	assert.Equal(t, []any{5, "abc"}, bestMatches(result.ArgValues))

	result = parse(t, params, "3 abc")
	requireSuccess(t, result)
	assert.Equal(t, []any{3, "abc"}, bestMatches(result.ArgValues))

	// A quoted token is retried as a whole
	result = parse(t, params, `"a b"`)
	requireSuccess(t, result)
	assert.Equal(t, []any{5, "a b"}, bestMatches(result.ArgValues))
}

func TestParse_OptionalMissing(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("name"), num("count", cmdparse.Optional(7))}

	result := parse(t, params, "abc")
	requireSuccess(t, result)
	assert.Equal(t, []any{"abc", 7}, bestMatches(result.ArgValues))
}

func TestParse_MandatoryFailureKeepsFallbacks(t *testing.T) {
	params := []*cmdparse.ParameterInfo{num("first", cmdparse.Optional(0)), num("second")}

	result := parse(t, params, "x")
	requireFailure(t, result, data.ErrorParseFailed)
	assert.Equal(t, "second", result.Error.Parameter)
	require.Len(t, result.Error.Fallbacks, 1)
	assert.Equal(t, "first", result.Error.Fallbacks[0].Parameter)

	// Soft failures of earlier tokens are not attached
	params = []*cmdparse.ParameterInfo{num("first", cmdparse.Optional(0)), str("name"), num("second")}
	result = parse(t, params, "a b")
	requireFailure(t, result, data.ErrorParseFailed)
	assert.Equal(t, "second", result.Error.Parameter)
	assert.Empty(t, result.Error.Fallbacks)
}

func TestParse_ArgCount(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a")}

	result := parse(t, params, "x y")
	requireFailure(t, result, data.ErrorBadArgCount)

	result = parse(t, params, `x "y z" w`, cmdparse.WithParserIgnoreExtraArgs(true))
	requireSuccess(t, result)
	assert.Equal(t, []any{"x"}, bestMatches(result.ArgValues))

	// Scanning stops after the first extra argument
	result = parse(t, params, `x y "z`, cmdparse.WithParserIgnoreExtraArgs(true))
	requireSuccess(t, result)
	assert.Equal(t, []any{"x"}, bestMatches(result.ArgValues))

	result = parse(t, []*cmdparse.ParameterInfo{str("a"), str("b")}, "x")
	requireFailure(t, result, data.ErrorBadArgCount)
	assert.Equal(t, "b", result.Error.Parameter)

	result = parse(t, nil, "")
	requireSuccess(t, result)
	assert.Empty(t, result.ArgValues)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing backslash", `a\`},
		{"lone backslash", `\`},
		{"unclosed quote", `"a b`},
		{"unclosed quote after escape", `"a\"`},
		{"adjacent quoted", `"a""b"`},
		{"token after quote", `"a"b`},
	}

	params := []*cmdparse.ParameterInfo{str("a"), str("b", cmdparse.Optional(""))}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, params, tt.input)
			requireFailure(t, result, data.ErrorParseFailed)
		})
	}
}

func TestParse_MalformedExtraArgs(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a")}
	ignore := cmdparse.WithParserIgnoreExtraArgs(true)

	for _, input := range []string{`x "y`, `x y\`, `x \`, `x «y`} {
		t.Run(input, func(t *testing.T) {
			result := parse(t, params, input, ignore, cmdparse.WithParserQuotes(cmdparse.DefaultQuoteAliases()))
			requireFailure(t, result, data.ErrorParseFailed)
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a"), str("b"), str("c")}

	result := parse(t, params, "x\xff \"a\xfe b\" \\\xfd")
	requireSuccess(t, result)
	assert.Equal(t, []any{"x\xff", "a\xfe b", "\\\xfd"}, bestMatches(result.ArgValues))

	params = []*cmdparse.ParameterInfo{str("target"), str("text", cmdparse.Remainder())}
	result = parse(t, params, "bob a\xffb \xc3")
	requireSuccess(t, result)
	assert.Equal(t, []any{"bob", "a\xffb \xc3"}, bestMatches(result.ArgValues))

	// Offsets count bytes of the original input
	result, err := cmdparse.NewParser().Parse(t.Context(), params, "\xff\xfe x y", 2)
	require.NoError(t, err)
	requireSuccess(t, result)
	assert.Equal(t, []any{"x", "y"}, bestMatches(result.ArgValues))
}

func TestParse_SequenceTypeMismatch(t *testing.T) {
	// The int reader cannot fill a []int64
	params := []*cmdparse.ParameterInfo{cmdparse.NewParameter[int64]("n", cmdparse.Greedy(), cmdparse.WithReader(reader.Int()))}
	result := parse(t, params, "1 2 3")
	requireFailure(t, result, data.ErrorException)
	assert.Equal(t, "n", result.Error.Parameter)
	assert.Contains(t, result.Error.Reason, "int64")

	// Ended by a token that does not convert
	params = []*cmdparse.ParameterInfo{
		cmdparse.NewParameter[int64]("n", cmdparse.Greedy(), cmdparse.WithReader(reader.Int())),
		str("rest"),
	}
	result = parse(t, params, "1 x")
	requireFailure(t, result, data.ErrorException)

	// An ambiguous result without values has no value to collect
	empty := reader.TypeReaderFunc(func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		return data.Ambiguous(), nil
	})
	params = []*cmdparse.ParameterInfo{cmdparse.NewParameter[int]("n", cmdparse.Greedy(), cmdparse.WithReader(empty))}
	result = parse(t, params, "1")
	requireFailure(t, result, data.ErrorException)

	// Nil is a valid pointer value
	params = []*cmdparse.ParameterInfo{cmdparse.NewParameter[*data.Entity]("e", cmdparse.Greedy(), cmdparse.WithReader(empty))}
	result = parse(t, params, "1 2")
	requireSuccess(t, result)
	assert.Equal(t, []*data.Entity{nil, nil}, result.ArgValues[0].BestMatch())
}

func TestParse_Remainder(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("target"), str("text", cmdparse.Remainder())}

	result := parse(t, params, `bob   say "hi" \ there  `)
	requireSuccess(t, result)
	assert.Equal(t, []any{"bob", `say "hi" \ there  `}, bestMatches(result.ArgValues))

	// Rewound onto a remainder parameter
	params = []*cmdparse.ParameterInfo{num("count", cmdparse.Optional(1)), str("text", cmdparse.Remainder())}
	result = parse(t, params, `\hello "world`)
	requireSuccess(t, result)
	assert.Equal(t, []any{1, `\hello "world`}, bestMatches(result.ArgValues))

	// Remainder conversion failures are fatal
	params = []*cmdparse.ParameterInfo{num("count", cmdparse.Remainder())}
	result = parse(t, params, "1 2")
	requireFailure(t, result, data.ErrorParseFailed)
	assert.Equal(t, "count", result.Error.Parameter)
}

func TestParse_Multiple(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("name"), num("values", cmdparse.Multiple())}

	result := parse(t, params, "a 1 2 3")
	requireSuccess(t, result)
	assert.Equal(t, []any{"a"}, bestMatches(result.ArgValues))
	assert.Equal(t, []any{1, 2, 3}, bestMatches(result.ParamValues))

	result = parse(t, params, "a")
	requireSuccess(t, result)
	assert.Equal(t, []any{"a"}, bestMatches(result.ArgValues))
	assert.Empty(t, result.ParamValues)

	result = parse(t, params, "a 1 x")
	requireFailure(t, result, data.ErrorParseFailed)
	assert.Equal(t, "values", result.Error.Parameter)
}

func ambiguous() reader.TypeReader {
	return reader.TypeReaderFunc(func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		return data.Ambiguous(
			data.TypeReaderValue{Value: input + "-low", Score: 0.5},
			data.TypeReaderValue{Value: input + "-high", Score: 0.9},
		), nil
	})
}

func TestParse_AmbiguousIsSuccess(t *testing.T) {
	params := []*cmdparse.ParameterInfo{
		cmdparse.NewParameter[string]("first", cmdparse.Optional("none"), cmdparse.WithReader(ambiguous())),
		cmdparse.NewParameter[string]("rest", cmdparse.Greedy(), cmdparse.WithReader(ambiguous())),
	}

	result := parse(t, params, "a b c")
	requireSuccess(t, result)
	require.Len(t, result.ArgValues, 2)
	assert.True(t, result.ArgValues[0].IsAmbiguous())
	assert.Equal(t, "a-high", result.ArgValues[0].BestMatch())
	assert.Equal(t, []string{"b-high", "c-high"}, result.ArgValues[1].BestMatch())
}

func TestParse_QuoteAliases(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a"), str("b"), str("c")}
	quotes := cmdparse.WithParserQuotes(cmdparse.DefaultQuoteAliases())

	result := parse(t, params, `«a b» “c d” 「e\」f」`, quotes)
	requireSuccess(t, result)
	assert.Equal(t, []any{"a b", "c d", "e」f"}, bestMatches(result.ArgValues))

	// Outside of quotes only the plain double quote can be escaped
	result = parse(t, params[:1], `x\»`, quotes)
	requireSuccess(t, result)
	assert.Equal(t, []any{`x\»`}, bestMatches(result.ArgValues))

	// A custom table replaces the default pair
	custom := cmdparse.WithParserQuotes(cmdparse.QuoteAliasMap{'<': '>'})
	result = parse(t, params[:2], `<a b> "c`, custom)
	requireSuccess(t, result)
	assert.Equal(t, []any{"a b", `"c`}, bestMatches(result.ArgValues))
}

func TestParse_ConverterAndCancellation(t *testing.T) {
	params := []*cmdparse.ParameterInfo{str("a"), str("b")}

	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	convert := func(ctx context.Context, param *cmdparse.ParameterInfo, input string) (data.TypeReaderResult, error) {
		calls++
		cancel()
		return data.FromSuccess(input), nil
	}

	result, err := cmdparse.NewParser(cmdparse.WithConverter(convert)).Parse(ctx, params, "x y", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 1, calls)

	// Already cancelled
	result, err = cmdparse.NewParser().Parse(ctx, params, "x y", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	unreachable := errors.New("backend unreachable")
	failing := func(ctx context.Context, param *cmdparse.ParameterInfo, input string) (data.TypeReaderResult, error) {
		return data.TypeReaderResult{}, unreachable
	}
	result, err = cmdparse.NewParser(cmdparse.WithConverter(failing)).Parse(t.Context(), params, "x y", 0)
	assert.ErrorIs(t, err, unreachable)
	assert.Nil(t, result)
}

func TestParse_ConvertsInOrder(t *testing.T) {
	var seen []string
	convert := func(ctx context.Context, param *cmdparse.ParameterInfo, input string) (data.TypeReaderResult, error) {
		seen = append(seen, param.Name+"="+input)
		return param.Reader.Read(ctx, input)
	}

	params := []*cmdparse.ParameterInfo{num("n", cmdparse.Optional(0)), str("s"), num("rest", cmdparse.Greedy())}
	result := parse(t, params, "a 1 2", cmdparse.WithConverter(convert))
	requireSuccess(t, result)
	assert.Equal(t, []string{"n=a", "s=a", "rest=1", "rest=2"}, seen)
}

func TestParse_MissingReader(t *testing.T) {
	result := parse(t, []*cmdparse.ParameterInfo{cmdparse.NewParameter[string]("a")}, "x")
	requireFailure(t, result, data.ErrorException)
}

func TestParse_LogsRewind(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("parser", log.Debug, &buf)

	params := []*cmdparse.ParameterInfo{num("count", cmdparse.Optional(1)), str("name")}
	result := parse(t, params, "abc", cmdparse.WithParserLogger(logger))
	requireSuccess(t, result)
	assert.Contains(t, buf.String(), "rewinding after soft failure")
	assert.Contains(t, buf.String(), "param=count token=abc")
}

// serialize quotes every token so that parsing yields it back unchanged.
func serialize(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, `"`+strings.ReplaceAll(token, `"`, `\"`)+`"`)
	}
	return strings.Join(quoted, " ")
}

func TestParse_Reserialize(t *testing.T) {
	inputs := []string{
		`plain "two words" ""`,
		`say\"hi "tab	here" ünïcödé`,
		`C:\path "a \"b\" c" x`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			params := []*cmdparse.ParameterInfo{str("a"), str("b"), str("c")}

			first := parse(t, params, input)
			requireSuccess(t, first)

			tokens := make([]string, 0, len(first.ArgValues))
			for _, v := range first.ArgValues {
				tokens = append(tokens, v.BestMatch().(string))
			}

			second := parse(t, params, serialize(tokens))
			requireSuccess(t, second)
			assert.Equal(t, bestMatches(first.ArgValues), bestMatches(second.ArgValues))
		})
	}
}

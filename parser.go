package cmdparse

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/log"
)

// Converter turns the raw text of one token into a value for param.
// A returned error aborts the whole parse.
type Converter func(ctx context.Context, param *ParameterInfo, input string) (data.TypeReaderResult, error)

// Parser splits an argument line into tokens and converts them against a
// parameter list. A Parser is read-only after construction and may be used
// concurrently.
type Parser struct {
	quotes          QuoteAliasMap
	ignoreExtraArgs bool
	convert         Converter
	logger          *log.Logger
}

type parserMode int

const (
	modeNone parserMode = iota
	modeToken
	modeQuoted
)

const escapeChar = '\\'

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		convert: readerConverter,
		logger:  log.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// readerConverter converts with the reader attached to the parameter.
func readerConverter(ctx context.Context, param *ParameterInfo, input string) (data.TypeReaderResult, error) {
	if param.Reader == nil {
		return data.FromError(data.ErrorException, fmt.Sprintf("No type reader for parameter '%s' of type %s.", param.Name, param.Type)), nil
	}
	return param.Reader.Read(ctx, input)
}

type greedyArgs struct {
	param  *ParameterInfo
	values []any
}

type softFailure struct {
	tokenStart int
	err        *data.CommandError
}

// scanState is owned by a single Parse call. Positions are byte offsets
// into input.
type scanState struct {
	params []*ParameterInfo
	input  string

	param      *ParameterInfo
	mode       parserMode
	token      strings.Builder
	escaping   bool
	closeQuote rune

	tokenStart int
	lastArgEnd int

	args   []data.TypeReaderResult
	multi  []data.TypeReaderResult
	greedy *greedyArgs
	soft   []softFailure
}

// nextParam returns the first parameter without a delivered value.
func (s *scanState) nextParam() *ParameterInfo {
	if len(s.args) < len(s.params) {
		return s.params[len(s.args)]
	}
	return nil
}

// activeQuote is the character an escape turns into a literal.
func (s *scanState) activeQuote() rune {
	if s.mode == modeQuoted {
		return s.closeQuote
	}
	return defaultQuote
}

func (s *scanState) endToken() {
	s.mode = modeNone
	s.token.Reset()
}

// fallbacks returns the soft failures recorded for the token starting at pos.
func (s *scanState) fallbacks(pos int) []*data.CommandError {
	var errs []*data.CommandError
	for _, f := range s.soft {
		if f.tokenStart == pos {
			errs = append(errs, f.err)
		}
	}
	return errs
}

// Parse converts input, starting at byte offset startPos, against params.
//
// Grammar, arity and conversion failures are reported in the result. The
// error return is reserved for aborts: a cancelled context or an error
// returned by the converter. No result is returned in that case.
//
// Token text is copied from input byte for byte, so invalid UTF-8 is kept
// as it was written.
func (p *Parser) Parse(ctx context.Context, params []*ParameterInfo, input string, startPos int) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if startPos < 0 || startPos > len(input) || (startPos < len(input) && !utf8.RuneStart(input[startPos])) {
		return parseError(data.NewCommandError(data.ErrorParseFailed, "Start position %d is not a valid offset into the input.", startPos)), nil
	}

	s := &scanState{
		params:     params,
		input:      input[startPos:],
		lastArgEnd: -1,
	}

	end := len(s.input)
	for pos, next := 0, 0; pos <= end; pos = next {
		atEnd := pos == end
		var c rune
		var raw string
		if atEnd {
			next = end + 1
		} else {
			var size int
			c, size = utf8.DecodeRuneInString(s.input[pos:])
			next = pos + size
			raw = s.input[pos:next]
		}

		// Remainder capture ignores quoting, escaping and whitespace
		if s.param != nil && s.param.IsRemainder {
			if atEnd {
				break
			}
			s.token.WriteString(raw)
			continue
		}

		if s.escaping && !atEnd {
			if c != s.activeQuote() {
				s.token.WriteRune(escapeChar)
			}
			s.token.WriteString(raw)
			s.escaping = false
			continue
		}

		if s.mode == modeNone {
			if atEnd || unicode.IsSpace(c) {
				continue
			}
			if pos == s.lastArgEnd {
				return parseError(data.NewCommandError(data.ErrorParseFailed, "There must be at least one character of whitespace between arguments.")), nil
			}

			s.tokenStart = pos
			if s.param == nil {
				s.param = s.nextParam()
			}

			if s.param == nil || !s.param.IsGreedy {
				s.greedy = nil
			} else if s.greedy == nil || s.greedy.param != s.param {
				s.greedy = &greedyArgs{param: s.param}
			}

			if s.param != nil && s.param.IsRemainder {
				s.token.WriteString(raw)
				continue
			}

			if c == escapeChar {
				s.mode = modeToken
				s.escaping = true
				continue
			}

			if closing, ok := p.quotes.closeFor(c); ok {
				s.mode = modeQuoted
				s.closeQuote = closing
				continue
			}

			s.mode = modeToken
		}

		if c == escapeChar && !atEnd {
			s.escaping = true
			continue
		}

		ended := false
		switch s.mode {
		case modeToken:
			if atEnd || unicode.IsSpace(c) {
				ended = true
				s.lastArgEnd = pos
			} else {
				s.token.WriteString(raw)
			}
		case modeQuoted:
			if atEnd {
				break
			}
			if c == s.closeQuote {
				ended = true
				s.lastArgEnd = next
			} else {
				s.token.WriteString(raw)
			}
		}

		if !ended {
			continue
		}

		if s.param == nil {
			if p.ignoreExtraArgs {
				// Extra arguments end the scan at the boundary of the first one
				s.endToken()
				break
			}
			return parseError(data.NewCommandError(data.ErrorBadArgCount, "The input text has too many parameters.")), nil
		}

		text := s.token.String()
		result, err := p.convertToken(ctx, s.param, text)
		if err != nil {
			return nil, err
		}

		if result.IsFailure() {
			failure := data.FromResult(result, s.param.Name)
			if !s.param.IsOptional && !s.param.IsGreedy {
				failure.Fallbacks = s.fallbacks(s.tokenStart)
				return parseError(failure), nil
			}

			if s.param.IsGreedy {
				seq, cmdErr := s.param.sequenceResult(s.greedy.values)
				if cmdErr != nil {
					return parseError(cmdErr), nil
				}
				s.args = append(s.args, seq)
				s.greedy = nil
			} else {
				s.args = append(s.args, data.FromSuccess(s.param.DefaultValue))
			}
			s.soft = append(s.soft, softFailure{tokenStart: s.tokenStart, err: failure})

			if p.logger.Enabled(log.Debug) {
				p.logger.With("param", s.param.Name).With("token", text).Debug("rewinding after soft failure: %s", failure.Reason)
			}

			// Offer the same token to the next parameter
			s.param = nil
			s.escaping = false
			s.endToken()
			next = s.tokenStart
			continue
		}

		switch {
		case s.param.IsGreedy:
			s.greedy.values = append(s.greedy.values, result.BestMatch())
			s.param = nil
		case s.param.IsMultiple:
			s.multi = append(s.multi, result)
		default:
			s.args = append(s.args, result)
			s.param = nil
		}
		s.endToken()
	}

	return p.finalize(ctx, s)
}

func (p *Parser) finalize(ctx context.Context, s *scanState) (*ParseResult, error) {
	if s.param != nil && s.param.IsRemainder {
		result, err := p.convertToken(ctx, s.param, s.token.String())
		if err != nil {
			return nil, err
		}
		if result.IsFailure() {
			return parseError(data.FromResult(result, s.param.Name)), nil
		}
		s.args = append(s.args, result)
	}

	if s.escaping {
		return parseError(data.NewCommandError(data.ErrorParseFailed, "Input text may not end on an incomplete escape.")), nil
	}
	if s.mode == modeQuoted {
		return parseError(data.NewCommandError(data.ErrorParseFailed, "A quoted parameter is incomplete.")), nil
	}

	if s.greedy != nil && len(s.greedy.values) > 0 {
		seq, cmdErr := s.greedy.param.sequenceResult(s.greedy.values)
		if cmdErr != nil {
			return parseError(cmdErr), nil
		}
		s.args = append(s.args, seq)
	}

	for i := len(s.args); i < len(s.params); i++ {
		param := s.params[i]
		if param.IsMultiple && !param.IsGreedy {
			continue
		}
		if !param.IsOptional && !param.IsGreedy {
			err := data.NewCommandError(data.ErrorBadArgCount, "The input text has too few parameters.")
			err.Parameter = param.Name
			return parseError(err), nil
		}

		if param.IsGreedy && param.DefaultValue == nil {
			seq, cmdErr := param.sequenceResult(nil)
			if cmdErr != nil {
				return parseError(cmdErr), nil
			}
			s.args = append(s.args, seq)
		} else {
			s.args = append(s.args, data.FromSuccess(param.DefaultValue))
		}
	}

	return &ParseResult{
		ArgValues:   s.args,
		ParamValues: s.multi,
	}, nil
}

// convertToken runs the converter with cancellation checked on both sides.
func (p *Parser) convertToken(ctx context.Context, param *ParameterInfo, text string) (data.TypeReaderResult, error) {
	if err := ctx.Err(); err != nil {
		return data.TypeReaderResult{}, err
	}

	result, err := p.convert(ctx, param, text)
	if err != nil {
		return data.TypeReaderResult{}, fmt.Errorf("failed to convert parameter '%s': %w", param.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return data.TypeReaderResult{}, err
	}

	return result, nil
}

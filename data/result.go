package data

import "fmt"

// TypeReaderValue is a single candidate produced by a type reader.
// Score ranks candidates when a reader returns more than one.
type TypeReaderValue struct {
	Value any
	Score float32
}

func (v TypeReaderValue) String() string {
	return fmt.Sprintf("%v@%.2f", v.Value, v.Score)
}

// TypeReaderResult is the outcome of converting one token.
type TypeReaderResult struct {
	Values []TypeReaderValue
	Error  ErrorKind
	Reason string
}

func FromSuccess(value any) TypeReaderResult {
	return TypeReaderResult{
		Values: []TypeReaderValue{{Value: value, Score: 1.0}},
	}
}

// FromValues returns a successful result holding all given candidates.
// More than one candidate makes the result ambiguous.
func FromValues(values ...TypeReaderValue) TypeReaderResult {
	return TypeReaderResult{
		Values: values,
	}
}

func FromError(kind ErrorKind, reason string) TypeReaderResult {
	return TypeReaderResult{
		Error:  kind,
		Reason: reason,
	}
}

// Ambiguous returns a result reporting several equally valid matches.
func Ambiguous(values ...TypeReaderValue) TypeReaderResult {
	return TypeReaderResult{
		Values: values,
		Error:  ErrorMultipleMatches,
		Reason: "Multiple matches found.",
	}
}

func (r TypeReaderResult) IsSuccess() bool {
	return r.Error == ErrorNone
}

func (r TypeReaderResult) IsAmbiguous() bool {
	return r.Error == ErrorMultipleMatches || (r.Error == ErrorNone && len(r.Values) > 1)
}

// IsFailure reports whether the result failed without offering any match.
// Ambiguous results are not failures.
func (r TypeReaderResult) IsFailure() bool {
	return r.Error != ErrorNone && r.Error != ErrorMultipleMatches
}

// BestMatch returns the value with the highest score, or nil without values.
// The first candidate wins ties.
func (r TypeReaderResult) BestMatch() any {
	if len(r.Values) == 0 {
		return nil
	}

	best := r.Values[0]
	for _, v := range r.Values[1:] {
		if v.Score > best.Score {
			best = v
		}
	}

	return best.Value
}

func (r TypeReaderResult) String() string {
	if r.IsFailure() {
		return fmt.Sprintf("%s: %s", r.Error, r.Reason)
	}

	return fmt.Sprintf("%v", r.Values)
}

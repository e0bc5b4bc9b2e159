package cmdparse

import "github.com/mwantia/cmdparse/data"

// ParseResult holds the converted arguments of one parse.
type ParseResult struct {
	// One result per non-multiple declared parameter, in declaration order.
	// Greedy parameters hold a single []T value.
	ArgValues []data.TypeReaderResult

	// Results collected by the multiple parameter, in arrival order.
	ParamValues []data.TypeReaderResult

	// Error is nil on success.
	Error *data.CommandError
}

func (r *ParseResult) IsSuccess() bool {
	return r.Error == nil
}

// Err returns the failure as an error, or nil on success.
func (r *ParseResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

func parseError(err *data.CommandError) *ParseResult {
	return &ParseResult{
		Error: err,
	}
}

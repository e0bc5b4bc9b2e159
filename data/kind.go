package data

// ErrorKind classifies a parse, reader or command failure.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorUnknownCommand
	ErrorParseFailed
	ErrorBadArgCount
	ErrorObjectNotFound
	ErrorMultipleMatches
	ErrorException
	ErrorUnsuccessful
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "None"
	case ErrorUnknownCommand:
		return "UnknownCommand"
	case ErrorParseFailed:
		return "ParseFailed"
	case ErrorBadArgCount:
		return "BadArgCount"
	case ErrorObjectNotFound:
		return "ObjectNotFound"
	case ErrorMultipleMatches:
		return "MultipleMatches"
	case ErrorException:
		return "Exception"
	case ErrorUnsuccessful:
		return "Unsuccessful"
	default:
		return "Unknown"
	}
}

// Err returns the sentinel error for this kind, or nil for ErrorNone.
func (k ErrorKind) Err() error {
	switch k {
	case ErrorNone:
		return nil
	case ErrorUnknownCommand:
		return ErrUnknownCommand
	case ErrorParseFailed:
		return ErrParseFailed
	case ErrorBadArgCount:
		return ErrBadArgCount
	case ErrorObjectNotFound:
		return ErrObjectNotFound
	case ErrorMultipleMatches:
		return ErrMultipleMatches
	case ErrorException:
		return ErrException
	default:
		return ErrUnsuccessful
	}
}

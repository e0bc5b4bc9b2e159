package reader

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

func parseFailed(input, typeName string) data.TypeReaderResult {
	return data.FromError(data.ErrorParseFailed, fmt.Sprintf("Failed to parse '%s' as %s.", input, typeName))
}

func String() TypeReader {
	return Func[string](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		return data.FromSuccess(input), nil
	})
}

func Int() TypeReader {
	return Func[int](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		v, err := strconv.Atoi(input)
		if err != nil {
			return parseFailed(input, TypeInt), nil
		}
		return data.FromSuccess(v), nil
	})
}

func Int64() TypeReader {
	return Func[int64](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		v, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return parseFailed(input, TypeInt64), nil
		}
		return data.FromSuccess(v), nil
	})
}

func Float64() TypeReader {
	return Func[float64](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		v, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return parseFailed(input, TypeFloat64), nil
		}
		return data.FromSuccess(v), nil
	})
}

// Bool accepts true/false, yes/no, on/off and 1/0, ignoring case.
func Bool() TypeReader {
	return Func[bool](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		switch strings.ToLower(input) {
		case "true", "yes", "on", "1":
			return data.FromSuccess(true), nil
		case "false", "no", "off", "0":
			return data.FromSuccess(false), nil
		default:
			return parseFailed(input, TypeBool), nil
		}
	})
}

// Duration accepts Go durations ("1h30m"), a day suffix ("2d", "1d12h")
// and clock notation ("01:30:00", "90:00").
func Duration() TypeReader {
	return Func[time.Duration](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		if d, ok := parseDuration(input); ok {
			return data.FromSuccess(d), nil
		}
		return parseFailed(input, TypeDuration), nil
	})
}

const day = 24 * time.Hour

func parseDuration(input string) (time.Duration, bool) {
	if input == "" {
		return 0, false
	}

	if strings.Contains(input, ":") {
		return parseClock(input)
	}

	var days time.Duration
	if idx := strings.IndexByte(input, 'd'); idx > 0 {
		n, err := strconv.ParseInt(input[:idx], 10, 64)
		if err != nil || n < 0 || n > math.MaxInt64/int64(day) {
			return 0, false
		}
		days = time.Duration(n) * day
		input = input[idx+1:]
		if input == "" {
			return days, true
		}
	}

	d, err := time.ParseDuration(input)
	if err != nil || (d > 0 && days > math.MaxInt64-d) {
		return 0, false
	}
	return days + d, true
}

// parseClock reads "hh:mm:ss" or "mm:ss".
func parseClock(input string) (time.Duration, bool) {
	parts := strings.Split(input, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	units := []time.Duration{time.Second, time.Minute, time.Hour}
	var total time.Duration
	for i := range parts {
		part := parts[len(parts)-1-i]
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 || (i < 2 && i < len(parts)-1 && n >= 60) {
			return 0, false
		}
		if n > math.MaxInt64/int64(units[i]) {
			return 0, false
		}
		v := time.Duration(n) * units[i]
		if total > math.MaxInt64-v {
			return 0, false
		}
		total += v
	}
	return total, true
}

func UUID() TypeReader {
	return Func[uuid.UUID](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		id, err := uuid.Parse(input)
		if err != nil {
			return parseFailed(input, TypeUUID), nil
		}
		return data.FromSuccess(id), nil
	})
}

// Enum accepts one of the given values, ignoring case, and yields the
// declared spelling.
func Enum(values ...string) TypeReader {
	folded := make(map[string]string, len(values))
	for _, v := range values {
		folded[backend.FoldName(v)] = v
	}

	return Func[string](func(ctx context.Context, input string) (data.TypeReaderResult, error) {
		if v, ok := folded[backend.FoldName(input)]; ok {
			return data.FromSuccess(v), nil
		}
		return data.FromError(data.ErrorParseFailed,
			fmt.Sprintf("Value '%s' is not one of: %s.", input, strings.Join(values, ", "))), nil
	})
}

package export

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDateLayout     = "2006-01-02"
	defaultDateTimeLayout = "2006-01-02 15:04:05"
	defaultTimeLayout     = "15:04:05"
)

// TimeFormatter renders time-like values with Layout. Unparseable values pass through.
type TimeFormatter struct {
	Layout   string
	Location *time.Location
}

func (f TimeFormatter) FormatValue(value any, key string) any {
	_ = key
	timeValue, ok := coerceTime(value)
	if !ok {
		return value
	}
	if f.Location != nil {
		timeValue = timeValue.In(f.Location)
	}
	layout := strings.TrimSpace(f.Layout)
	if layout == "" {
		layout = time.RFC3339
	}
	return timeValue.Format(layout)
}

// BoolFormatter renders booleans as labels.
type BoolFormatter struct {
	True  string
	False string
}

func (f BoolFormatter) FormatValue(value any, key string) any {
	_ = key
	boolValue, ok := coerceBool(value)
	if !ok {
		return value
	}
	if boolValue {
		return f.True
	}
	return f.False
}

// IntFormatter coerces values to int64.
type IntFormatter struct{}

func (IntFormatter) FormatValue(value any, key string) any {
	_ = key
	if intValue, ok := coerceInt(value); ok {
		return intValue
	}
	return value
}

// NumberFormatter coerces values to float64, or to text when Format is a printf verb.
type NumberFormatter struct {
	Format string
}

func (f NumberFormatter) FormatValue(value any, key string) any {
	_ = key
	floatValue, ok := coerceFloat(value)
	if !ok {
		return value
	}
	if format := strings.TrimSpace(f.Format); format != "" && strings.Contains(format, "%") {
		return fmt.Sprintf(format, floatValue)
	}
	return floatValue
}

// TextFormatter stringifies values and applies an optional transform.
type TextFormatter struct {
	Transform func(string) string
}

func (f TextFormatter) FormatValue(value any, key string) any {
	_ = key
	if value == nil {
		return nil
	}
	text := stringify(value)
	if f.Transform != nil {
		text = f.Transform(text)
	}
	return text
}

// DefaultFormatterTypes returns a registry preloaded with the built-in formatter names.
func DefaultFormatterTypes() *FormatterTypes {
	types := NewFormatterTypes()
	builtins := map[string]FormatterFactory{
		"date":     func() any { return TimeFormatter{Layout: defaultDateLayout} },
		"datetime": func() any { return TimeFormatter{Layout: defaultDateTimeLayout} },
		"time":     func() any { return TimeFormatter{Layout: defaultTimeLayout} },
		"bool":     func() any { return BoolFormatter{True: "Yes", False: "No"} },
		"int":      func() any { return IntFormatter{} },
		"number":   func() any { return NumberFormatter{} },
		"string":   func() any { return TextFormatter{} },
		"upper":    func() any { return TextFormatter{Transform: strings.ToUpper} },
		"lower":    func() any { return TextFormatter{Transform: strings.ToLower} },
		"trim":     func() any { return TextFormatter{Transform: strings.TrimSpace} },
	}
	for name, factory := range builtins {
		_ = types.Register(name, factory)
	}
	return types
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case *bool:
		if v == nil {
			return false, false
		}
		return *v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return parsed, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case int32:
		return v != 0, true
	case float64:
		return v != 0, true
	case float32:
		return v != 0, true
	case json.Number:
		floatValue, err := v.Float64()
		if err != nil {
			return false, false
		}
		return floatValue != 0, true
	default:
		return false, false
	}
}

func coerceInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		if math.Trunc(v) != v {
			return 0, false
		}
		return int64(v), true
	case float32:
		if math.Trunc(float64(v)) != float64(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return parsed, true
		}
		floatValue, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.Trunc(floatValue) != floatValue {
			return 0, false
		}
		return int64(floatValue), true
	case json.Number:
		parsed, err := v.Int64()
		if err == nil {
			return parsed, true
		}
		floatValue, err := v.Float64()
		if err != nil || math.Trunc(floatValue) != floatValue {
			return 0, false
		}
		return int64(floatValue), true
	default:
		return 0, false
	}
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseTimeString(v)
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return time.Unix(parsed, 0).UTC(), true
		}
		floatValue, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(floatValue), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseTimeString(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		defaultDateTimeLayout,
		"2006-01-02T15:04:05",
		defaultDateLayout,
		defaultTimeLayout,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// cellValue normalizes a formatted value for the sheet.
func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	case json.Number:
		if intValue, err := v.Int64(); err == nil {
			return intValue
		}
		if floatValue, err := v.Float64(); err == nil {
			return floatValue
		}
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return stringify(v)
	}
}

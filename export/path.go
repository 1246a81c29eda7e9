package export

import (
	"reflect"
	"strconv"
	"strings"
)

// Resolve returns the value at a dot-separated path, or nil when any segment is missing.
// An empty path returns item itself.
func Resolve(item any, path string) any {
	return ResolveDefault(item, path, nil)
}

// ResolveDefault is Resolve with an explicit default for missing segments.
func ResolveDefault(item any, path string, def any) any {
	if path == "" {
		return item
	}
	current := item
	for _, segment := range strings.Split(path, ".") {
		next, ok := lookupSegment(current, segment)
		if !ok {
			return def
		}
		current = next
	}
	return current
}

func lookupSegment(target any, segment string) (any, bool) {
	switch v := target.(type) {
	case nil:
		return nil, false
	case Row:
		value, ok := v[segment]
		return value, ok
	case map[string]any:
		value, ok := v[segment]
		return value, ok
	case map[string]string:
		value, ok := v[segment]
		return value, ok
	}

	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Struct:
		return structField(rv, segment)
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	default:
		return nil, false
	}
}

func structField(rv reflect.Value, segment string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tagName(sf, "flexcell") == segment || tagName(sf, "json") == segment || strings.EqualFold(sf.Name, segment) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

func tagName(sf reflect.StructField, key string) string {
	tag := sf.Tag.Get(key)
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

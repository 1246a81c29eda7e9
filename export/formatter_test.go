package export

import (
	"strings"
	"testing"
	"time"
)

type attributeHost struct{}

func (attributeHost) FormatStatusAttribute(value any) any {
	return "convention:" + stringify(value)
}

func (attributeHost) FormatDistrictNameAttribute(value any) any {
	return strings.ToUpper(stringify(value))
}

// Wrong signature; must be ignored.
func (attributeHost) FormatNoteAttribute(value string) string {
	return value
}

type suffixFormatter struct{ suffix string }

func (f suffixFormatter) FormatValue(value any, key string) any {
	return stringify(value) + f.suffix
}

type itemAwareFormatter struct{}

func (itemAwareFormatter) FormatItemValue(value any, key string, item any) any {
	return stringify(value) + "/" + stringify(Resolve(item, "id"))
}

func TestFormatterRegistry_ExplicitBeatsConvention(t *testing.T) {
	registry := NewFormatterRegistry(DefaultFormatterTypes())
	registry.Set(map[string]any{
		"status": func(value any) any { return "explicit:" + stringify(value) },
	})
	registry.BindConventions(attributeHost{}, []string{"status", "district.name", "note"})

	if got := registry.Format("status", "open", nil); got != "explicit:open" {
		t.Fatalf("expected explicit formatter, got %v", got)
	}
	if registry.Kind("status") != "explicit" {
		t.Fatalf("expected explicit kind, got %s", registry.Kind("status"))
	}
	if got := registry.Format("district.name", "north", nil); got != "NORTH" {
		t.Fatalf("expected convention formatter, got %v", got)
	}
	if registry.Kind("district.name") != "convention" {
		t.Fatalf("expected convention kind, got %s", registry.Kind("district.name"))
	}
	if got := registry.Format("note", "keep", nil); got != "keep" {
		t.Fatalf("expected identity for mismatched signature, got %v", got)
	}
	if registry.Kind("note") != "identity" {
		t.Fatalf("expected identity kind, got %s", registry.Kind("note"))
	}
}

func TestFormatterRegistry_EntryShapes(t *testing.T) {
	registry := NewFormatterRegistry(DefaultFormatterTypes())
	registry.Set(map[string]any{
		"fn3":     FormatterFunc(func(value any, key string, item any) any { return key }),
		"fn2":     func(value any, key string) any { return key + "!" },
		"literal": "N/A",
		"flag":    "bool",
		"name":    "upper",
		"price":   suffixFormatter{suffix: " EUR"},
		"ref":     itemAwareFormatter{},
		"zero":    0,
		"skipped": nil,
	})

	item := Row{"id": 9}
	cases := []struct {
		key   string
		value any
		want  any
		kind  string
	}{
		{key: "fn3", value: 1, want: "fn3", kind: "explicit"},
		{key: "fn2", value: 1, want: "fn2!", kind: "explicit"},
		{key: "literal", value: "ignored", want: "N/A", kind: "literal"},
		{key: "flag", value: true, want: "Yes", kind: "explicit"},
		{key: "name", value: "ann", want: "ANN", kind: "explicit"},
		{key: "price", value: 12, want: "12 EUR", kind: "explicit"},
		{key: "ref", value: "x", want: "x/9", kind: "explicit"},
		{key: "zero", value: "ignored", want: 0, kind: "literal"},
		{key: "skipped", value: "raw", want: "raw", kind: "identity"},
		{key: "unknown", value: 3, want: 3, kind: "identity"},
	}
	for _, tc := range cases {
		if got := registry.Format(tc.key, tc.value, item); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.key, tc.want, got)
		}
		if got := registry.Kind(tc.key); got != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.key, tc.kind, got)
		}
	}
}

func TestFormatterTypes_RegisterAndResolve(t *testing.T) {
	types := NewFormatterTypes()
	if err := types.Register("money", func() any { return suffixFormatter{suffix: " $"} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := types.Register("money", func() any { return nil }); KindFromError(err) != KindValidation {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	if err := types.Register("", func() any { return nil }); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := types.Register("nil", nil); err == nil {
		t.Fatalf("expected nil factory to fail")
	}
	if _, ok := types.Resolve("money"); !ok {
		t.Fatalf("expected money to resolve")
	}
	if names := types.Names(); len(names) != 1 || names[0] != "money" {
		t.Fatalf("unexpected names %v", names)
	}

	var missing *FormatterTypes
	if _, ok := missing.Resolve("money"); ok {
		t.Fatalf("expected nil registry to miss")
	}
}

func TestFormatterTypes_NonCapabilityFallsBackToLiteral(t *testing.T) {
	types := NewFormatterTypes()
	_ = types.Register("plain", func() any { return struct{}{} })
	registry := NewFormatterRegistry(types)
	registry.Set(map[string]any{"k": "plain"})
	if got := registry.Format("k", 1, nil); got != "plain" {
		t.Fatalf("expected literal type name, got %v", got)
	}
}

func TestBuiltinFormatters(t *testing.T) {
	types := DefaultFormatterTypes()
	stamp := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	cases := []struct {
		name  string
		value any
		want  any
	}{
		{name: "date", value: stamp, want: "2024-03-05"},
		{name: "datetime", value: "2024-03-05T14:07:09Z", want: "2024-03-05 14:07:09"},
		{name: "time", value: stamp, want: "14:07:09"},
		{name: "date", value: "not a date", want: "not a date"},
		{name: "bool", value: "false", want: "No"},
		{name: "int", value: "42", want: int64(42)},
		{name: "int", value: 4.5, want: 4.5},
		{name: "number", value: "1.25", want: 1.25},
		{name: "string", value: 12, want: "12"},
		{name: "lower", value: "ABC", want: "abc"},
		{name: "trim", value: "  x ", want: "x"},
	}
	for _, tc := range cases {
		factory, ok := types.Resolve(tc.name)
		if !ok {
			t.Fatalf("missing builtin %s", tc.name)
		}
		formatter, ok := factory().(Formatter)
		if !ok {
			t.Fatalf("builtin %s is not a Formatter", tc.name)
		}
		if got := formatter.FormatValue(tc.value, "k"); got != tc.want {
			t.Fatalf("%s(%v): expected %v, got %v", tc.name, tc.value, tc.want, got)
		}
	}

	printf := NumberFormatter{Format: "%.1f"}
	if got := printf.FormatValue(2, "k"); got != "2.0" {
		t.Fatalf("expected printf number, got %v", got)
	}
}

func TestConventionMethodName(t *testing.T) {
	cases := map[string]string{
		"status":        "FormatStatusAttribute",
		"district.name": "FormatDistrictNameAttribute",
		"created-at":    "FormatCreatedAtAttribute",
		"first_name":    "FormatFirstNameAttribute",
		"product_group": "FormatProductGroupAttribute",
		"order.line_no": "FormatOrderLineNoAttribute",
	}
	for key, want := range cases {
		if got := conventionMethodName(key); got != want {
			t.Fatalf("%s: expected %s, got %s", key, want, got)
		}
	}
}

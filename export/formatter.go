package export

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/stoewer/go-strcase"
)

// FormatterFunc formats a value for a mapping key. item is the raw dataset item.
type FormatterFunc func(value any, key string, item any) any

// Formatter is the single-value formatting capability.
type Formatter interface {
	FormatValue(value any, key string) any
}

// ItemFormatter is the extended capability that also receives the dataset item.
type ItemFormatter interface {
	FormatItemValue(value any, key string, item any) any
}

// FormatterFactory builds a formatter instance for a registered type name.
type FormatterFactory func() any

type formatterKind int

const (
	formatterIdentity formatterKind = iota
	formatterExplicit
	formatterLiteral
	formatterConvention
)

func (k formatterKind) String() string {
	switch k {
	case formatterExplicit:
		return "explicit"
	case formatterLiteral:
		return "literal"
	case formatterConvention:
		return "convention"
	default:
		return "identity"
	}
}

type valueFormatter struct {
	kind       formatterKind
	fn         FormatterFunc
	literal    any
	convention func(any) any
}

func (f valueFormatter) apply(value any, key string, item any) any {
	switch f.kind {
	case formatterExplicit:
		return f.fn(value, key, item)
	case formatterLiteral:
		return f.literal
	case formatterConvention:
		return f.convention(value)
	default:
		return value
	}
}

// FormatterTypes stores named formatter factories, the Go stand-in for
// registering formatters by class name.
type FormatterTypes struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewFormatterTypes creates an empty type registry.
func NewFormatterTypes() *FormatterTypes {
	return &FormatterTypes{factories: make(map[string]FormatterFactory)}
}

// Register adds a named factory.
func (r *FormatterTypes) Register(name string, factory FormatterFactory) error {
	if name == "" {
		return NewError(KindValidation, "formatter type name is required", nil)
	}
	if factory == nil {
		return NewError(KindValidation, "formatter factory is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return NewError(KindValidation, fmt.Sprintf("formatter type %q already registered", name), nil)
	}
	r.factories[name] = factory
	return nil
}

// Resolve returns the factory registered under name.
func (r *FormatterTypes) Resolve(name string) (FormatterFactory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Names lists registered type names in sorted order.
func (r *FormatterTypes) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatterRegistry resolves display values per mapping key.
type FormatterRegistry struct {
	types       *FormatterTypes
	explicit    map[string]valueFormatter
	conventions map[string]valueFormatter
}

// NewFormatterRegistry creates a registry. types may be nil.
func NewFormatterRegistry(types *FormatterTypes) *FormatterRegistry {
	return &FormatterRegistry{
		types:       types,
		explicit:    make(map[string]valueFormatter),
		conventions: make(map[string]valueFormatter),
	}
}

// Set registers formatters per mapping key. Later calls override earlier keys.
func (r *FormatterRegistry) Set(formatters map[string]any) {
	for key, entry := range formatters {
		if entry == nil {
			continue
		}
		r.explicit[key] = r.adapt(entry)
	}
}

func (r *FormatterRegistry) adapt(entry any) valueFormatter {
	switch f := entry.(type) {
	case FormatterFunc:
		return valueFormatter{kind: formatterExplicit, fn: f}
	case func(any, string, any) any:
		return valueFormatter{kind: formatterExplicit, fn: f}
	case func(any, string) any:
		return valueFormatter{kind: formatterExplicit, fn: func(value any, key string, _ any) any {
			return f(value, key)
		}}
	case func(any) any:
		return valueFormatter{kind: formatterExplicit, fn: func(value any, _ string, _ any) any {
			return f(value)
		}}
	case string:
		if factory, ok := r.types.Resolve(f); ok {
			if adapted, ok := adaptCapability(factory()); ok {
				return adapted
			}
		}
		return valueFormatter{kind: formatterLiteral, literal: f}
	}
	if adapted, ok := adaptCapability(entry); ok {
		return adapted
	}
	return valueFormatter{kind: formatterLiteral, literal: entry}
}

func adaptCapability(instance any) (valueFormatter, bool) {
	switch f := instance.(type) {
	case ItemFormatter:
		return valueFormatter{kind: formatterExplicit, fn: f.FormatItemValue}, true
	case Formatter:
		return valueFormatter{kind: formatterExplicit, fn: func(value any, key string, _ any) any {
			return f.FormatValue(value, key)
		}}, true
	}
	return valueFormatter{}, false
}

// BindConventions binds Format<Key>Attribute methods of host for each key.
// Methods must have the signature func(any) any.
func (r *FormatterRegistry) BindConventions(host any, keys []string) {
	if host == nil {
		return
	}
	hv := reflect.ValueOf(host)
	for _, key := range keys {
		if key == "" {
			continue
		}
		method := hv.MethodByName(conventionMethodName(key))
		if !method.IsValid() {
			continue
		}
		fn, ok := method.Interface().(func(any) any)
		if !ok {
			continue
		}
		r.conventions[key] = valueFormatter{kind: formatterConvention, convention: fn}
	}
}

// Format resolves the display value for key. Explicit formatters win over
// convention methods; unknown keys pass the value through.
func (r *FormatterRegistry) Format(key string, value any, item any) any {
	return r.lookup(key).apply(value, key, item)
}

func (r *FormatterRegistry) lookup(key string) valueFormatter {
	if r == nil || key == "" {
		return valueFormatter{}
	}
	if f, ok := r.explicit[key]; ok {
		return f
	}
	if f, ok := r.conventions[key]; ok {
		return f
	}
	return valueFormatter{}
}

// conventionMethodName camel-cases every dot, underscore and hyphen separated
// segment: "product_group" -> FormatProductGroupAttribute.
func conventionMethodName(key string) string {
	normalized := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return "Format" + strcase.UpperCamelCase(normalized) + "Attribute"
}

// Kind reports which formatter variant applies to key.
func (r *FormatterRegistry) Kind(key string) string {
	return r.lookup(key).kind.String()
}

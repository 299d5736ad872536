package typelib

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned when a type name is not in the registry.
var ErrUnknownType = errors.New("unknown type")

// Kind classifies a type.
type Kind string

const (
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindUint     Kind = "uint"
	KindFloat    Kind = "float"
	KindString   Kind = "string"
	KindEnum     Kind = "enum"
	KindCompound Kind = "compound"
	KindSequence Kind = "sequence"
	KindArray    Kind = "array"
	KindOpaque   Kind = "opaque"
)

// StringTypeName is the canonical name of the builtin string type.
const StringTypeName = "/std/string"

// Field is one member of a compound type.
type Field struct {
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	Type string `yaml:"type" json:"type" mapstructure:"type"`
}

// Type describes one registered type.
type Type struct {
	Name    string   `yaml:"name" json:"name" mapstructure:"name"`
	Kind    Kind     `yaml:"kind" json:"kind" mapstructure:"kind"`
	Size    int      `yaml:"size,omitempty" json:"size,omitempty" mapstructure:"size"`
	Fields  []Field  `yaml:"fields,omitempty" json:"fields,omitempty" mapstructure:"fields"`
	Element string   `yaml:"element,omitempty" json:"element,omitempty" mapstructure:"element"`
	Length  int      `yaml:"length,omitempty" json:"length,omitempty" mapstructure:"length"`
	Values  []string `yaml:"values,omitempty" json:"values,omitempty" mapstructure:"values"`
}

// Validate checks the structural consistency of the description.
func (t Type) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("type has no name")
	}
	switch t.Kind {
	case KindBool, KindString, KindOpaque:
	case KindInt, KindUint:
		switch t.Size {
		case 0, 1, 2, 4, 8:
		default:
			return fmt.Errorf("type %s: invalid integer size %d", t.Name, t.Size)
		}
	case KindFloat:
		switch t.Size {
		case 0, 4, 8:
		default:
			return fmt.Errorf("type %s: invalid float size %d", t.Name, t.Size)
		}
	case KindEnum:
		if len(t.Values) == 0 {
			return fmt.Errorf("type %s: enum without values", t.Name)
		}
	case KindCompound:
		for _, f := range t.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("type %s: incomplete field declaration", t.Name)
			}
		}
	case KindSequence, KindArray:
		if t.Element == "" {
			return fmt.Errorf("type %s: container without element type", t.Name)
		}
	default:
		return fmt.Errorf("type %s: unknown kind %q", t.Name, t.Kind)
	}
	return nil
}

// Registry maps type names to their descriptions.
type Registry struct {
	types    map[string]*Type
	aliases  map[string]string
	exported map[string]bool
}

// NewRegistry creates a registry pre-populated with the builtin scalar types.
func NewRegistry() *Registry {
	r := &Registry{
		types:    make(map[string]*Type),
		aliases:  make(map[string]string),
		exported: make(map[string]bool),
	}
	for _, t := range builtins {
		r.types[t.Name] = &Type{Name: t.Name, Kind: t.Kind, Size: t.Size}
		r.exported[t.Name] = true
	}
	for alias, name := range builtinAliases {
		r.aliases[alias] = name
	}
	return r
}

// Add registers (or replaces) a type. Later definitions win.
func (r *Registry) Add(t Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cp := t
	cp.Fields = append([]Field(nil), t.Fields...)
	cp.Values = append([]string(nil), t.Values...)
	r.types[t.Name] = &cp
	return nil
}

// Alias makes alias resolve to name.
func (r *Registry) Alias(alias, name string) {
	r.aliases[alias] = name
}

// Get returns the type registered under name (or an alias of it).
func (r *Registry) Get(name string) (*Type, bool) {
	if t, ok := r.types[name]; ok {
		return t, true
	}
	if target, ok := r.aliases[name]; ok {
		t, ok := r.types[target]
		return t, ok
	}
	return nil, false
}

// Lookup is Get returning an error wrapping ErrUnknownType.
func (r *Registry) Lookup(name string) (*Type, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Has reports whether name resolves.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Export marks a type as registered on the remote type system.
func (r *Registry) Export(name string) {
	r.exported[name] = true
}

// Exported reports whether a type can be marshalled across the transport.
func (r *Registry) Exported(name string) bool {
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	return r.exported[name]
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types (aliases excluded).
func (r *Registry) Len() int { return len(r.types) }

// Merge copies every type, alias and export mark of other into r.
func (r *Registry) Merge(other *Registry) {
	for name, t := range other.types {
		cp := *t
		r.types[name] = &cp
	}
	for alias, name := range other.aliases {
		r.aliases[alias] = name
	}
	for name, exported := range other.exported {
		if exported {
			r.exported[name] = true
		}
	}
}

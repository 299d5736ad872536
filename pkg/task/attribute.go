package task

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Attribute is a proxy on one attribute or property of a task. Its type is
// resolved once, when the proxy is created, importing the declaring type kit
// if the directory has a type importer.
type Attribute struct {
	task     *TaskContext
	info     domain.AttributeInfo
	typeName string
	typ      *typelib.Type
}

func newAttribute(ctx context.Context, t *TaskContext, info domain.AttributeInfo) (*Attribute, error) {
	typeName := info.TypeName
	if typeName == "string" {
		typeName = typelib.StringTypeName
	}
	typ, ok := t.dir.lookupType(ctx, typeName)
	if !ok {
		return nil, &domain.InternalError{Msg: fmt.Sprintf("can not find %s in the registry", typeName)}
	}
	return &Attribute{task: t, info: info, typeName: typeName, typ: typ}, nil
}

// Task returns the owning task.
func (a *Attribute) Task() *TaskContext { return a.task }

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.info.Name }

// Property reports whether this is a configuration property.
func (a *Attribute) Property() bool { return a.info.Property }

// TypeName returns the canonical type name.
func (a *Attribute) TypeName() string { return a.typeName }

// Type returns the resolved type.
func (a *Attribute) Type() *typelib.Type { return a.typ }

func (a *Attribute) String() string {
	kind := "attribute"
	if a.info.Property {
		kind = "property"
	}
	return fmt.Sprintf("%s %s (%s)", kind, a.info.Name, a.typeName)
}

func (a *Attribute) isString() bool { return a.typeName == typelib.StringTypeName }

// Read returns the current value converted to its native representation.
// String attributes use the dedicated string path.
func (a *Attribute) Read(ctx context.Context) (any, error) {
	if a.isString() {
		return call(ctx, a.task, "read_attribute_string", a.info.Name, func(ctx context.Context) (string, error) {
			return a.task.remote.ReadAttributeString(ctx, a.info.Name)
		})
	}

	raw, err := call(ctx, a.task, "read_attribute", a.info.Name, func(ctx context.Context) (any, error) {
		return a.task.remote.ReadAttribute(ctx, a.info.Name)
	})
	if err != nil {
		return nil, err
	}
	v, err := a.task.dir.types.Convert(a.typeName, raw)
	if err != nil {
		return nil, &domain.TypeMismatchError{Name: a.info.Name, Type: a.typeName, Value: raw, Err: err}
	}
	return v, nil
}

// Write sets the attribute. String attributes take any string-like value
// as is; other values must convert to the attribute type, or Write fails with
// a *domain.TypeMismatchError.
func (a *Attribute) Write(ctx context.Context, value any) error {
	if a.isString() {
		if s, ok := stringLike(value); ok {
			return call0(ctx, a.task, "write_attribute_string", a.info.Name, func(ctx context.Context) error {
				return a.task.remote.WriteAttributeString(ctx, a.info.Name, s)
			})
		}
	}

	wire, err := a.task.dir.types.Convert(a.typeName, value)
	if err != nil {
		return &domain.TypeMismatchError{Name: a.info.Name, Type: a.typeName, Value: value, Err: err}
	}
	return call0(ctx, a.task, "write_attribute", a.info.Name, func(ctx context.Context) error {
		return a.task.remote.WriteAttribute(ctx, a.info.Name, wire)
	})
}

func stringLike(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// Attribute returns a proxy on the attribute or property called name. It fails
// with a *domain.NotFoundError if there is none, and with a
// *domain.InternalError if its type is unknown to the type registry.
func (t *TaskContext) Attribute(ctx context.Context, name string) (*Attribute, error) {
	info, err := call(ctx, t, "attribute", name, func(ctx context.Context) (domain.AttributeInfo, error) {
		return t.remote.Attribute(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return newAttribute(ctx, t, info)
}

// Attributes returns proxies on every attribute and property, sorted by name.
func (t *TaskContext) Attributes(ctx context.Context) ([]*Attribute, error) {
	infos, err := call(ctx, t, "attributes", "", t.remote.Attributes)
	if err != nil {
		return nil, err
	}
	out := make([]*Attribute, 0, len(infos))
	for _, info := range infos {
		a, err := newAttribute(ctx, t, info)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

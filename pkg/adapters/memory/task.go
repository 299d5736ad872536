package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

type portState struct {
	info   domain.PortInfo
	sample any
	has    bool
}

type attributeState struct {
	info  domain.AttributeInfo
	value any
}

// OperationFunc implements a simulated operation.
type OperationFunc func(args []any) (any, error)

type operationState struct {
	info domain.OperationInfo
	fn   OperationFunc
}

// Task simulates a remote component. It implements ports.RemoteTask and
// enforces the lifecycle source states the way a real component does.
// Safe for concurrent use.
type Task struct {
	name  string
	model string

	mu         sync.RWMutex
	state      domain.TaskState
	ports      map[string]*portState
	attributes map[string]*attributeState
	operations map[string]*operationState
	fault      error
	calls      map[string]int

	// ConfigureHook and StartHook may refuse the transition by returning false.
	ConfigureHook func() bool
	StartHook     func() bool
}

// TaskOption configures a simulated task.
type TaskOption func(*Task)

// WithModel sets the task model name the task reports.
func WithModel(model string) TaskOption {
	return func(t *Task) { t.model = model }
}

// WithState sets the initial state.
func WithState(s domain.TaskState) TaskOption {
	return func(t *Task) { t.state = s }
}

// WithPort declares a port.
func WithPort(name string, dir domain.PortDirection, typeName string) TaskOption {
	return func(t *Task) { t.AddPort(domain.PortInfo{Name: name, Direction: dir, TypeName: typeName}) }
}

// WithAttribute declares an attribute holding value.
func WithAttribute(name, typeName string, value any) TaskOption {
	return func(t *Task) { t.AddAttribute(domain.AttributeInfo{Name: name, TypeName: typeName}, value) }
}

// WithProperty declares a property holding value.
func WithProperty(name, typeName string, value any) TaskOption {
	return func(t *Task) {
		t.AddAttribute(domain.AttributeInfo{Name: name, TypeName: typeName, Property: true}, value)
	}
}

// WithOperation exports an operation implemented by fn.
func WithOperation(info domain.OperationInfo, fn OperationFunc) TaskOption {
	return func(t *Task) { t.AddOperation(info, fn) }
}

// NewTask creates a simulated task in the PRE_OPERATIONAL state.
func NewTask(name string, opts ...TaskOption) *Task {
	t := &Task{
		name:       name,
		state:      domain.StatePreOperational,
		ports:      make(map[string]*portState),
		attributes: make(map[string]*attributeState),
		operations: make(map[string]*operationState),
		calls:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTaskFromModel creates a simulated task declaring the ports, properties
// and attributes of model, initialized with their default values.
func NewTaskFromModel(name string, model *domain.TaskModel, opts ...TaskOption) *Task {
	t := NewTask(name, WithModel(model.Name))
	for _, p := range model.Ports {
		t.AddPort(p)
	}
	for _, a := range model.Properties {
		a.Property = true
		t.AddAttribute(a, a.Default)
	}
	for _, a := range model.Attributes {
		t.AddAttribute(a, a.Default)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddPort declares (or replaces) a port.
func (t *Task) AddPort(info domain.PortInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ports[info.Name] = &portState{info: info}
}

// RemovePort deletes a port, as a component does when it is reconfigured.
func (t *Task) RemovePort(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ports, name)
}

// AddAttribute declares (or replaces) an attribute.
func (t *Task) AddAttribute(info domain.AttributeInfo, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attributes[info.Name] = &attributeState{info: info, value: value}
}

// AddOperation exports (or replaces) an operation.
func (t *Task) AddOperation(info domain.OperationInfo, fn OperationFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations[info.Name] = &operationState{info: info, fn: fn}
}

// SetState forces the lifecycle state, e.g. to simulate a runtime error.
func (t *Task) SetState(s domain.TaskState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

// Publish writes a sample on a port from the component side.
func (t *Task) Publish(name string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.ports[name]; ok {
		p.sample, p.has = value, true
	}
}

// Fail makes every subsequent call return err. Fail(nil) heals the task.
func (t *Task) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fault = err
}

// Calls returns how many times op was invoked.
func (t *Task) Calls(op string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calls[op]
}

// enter records a call and returns the injected fault, if any. Callers hold mu.
func (t *Task) enter(op string) error {
	t.calls[op]++
	return t.fault
}

func (t *Task) Name() string { return t.name }

func (t *Task) ModelName(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("model"); err != nil {
		return "", err
	}
	return t.model, nil
}

func (t *Task) State(ctx context.Context) (domain.TaskState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("state"); err != nil {
		return 0, err
	}
	return t.state, nil
}

func (t *Task) transition(tr domain.Transition, hook func() bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter(string(tr)); err != nil {
		return false, err
	}
	if !tr.AllowedFrom(t.state) {
		return false, fmt.Errorf("%w: cannot %s from %s", domain.ErrStateTransition, tr, t.state)
	}
	if hook != nil && tr.Refusable() && !hook() {
		return false, nil
	}
	t.state = tr.Target()
	return true, nil
}

func (t *Task) Configure(ctx context.Context) (bool, error) {
	return t.transition(domain.TransitionConfigure, t.ConfigureHook)
}

func (t *Task) Start(ctx context.Context) (bool, error) {
	return t.transition(domain.TransitionStart, t.StartHook)
}

func (t *Task) Stop(ctx context.Context) (bool, error) {
	return t.transition(domain.TransitionStop, nil)
}

func (t *Task) Cleanup(ctx context.Context) (bool, error) {
	return t.transition(domain.TransitionCleanup, nil)
}

func (t *Task) HasPort(ctx context.Context, name string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("has_port"); err != nil {
		return false, err
	}
	_, ok := t.ports[name]
	return ok, nil
}

func (t *Task) port(name string) (*portState, error) {
	p, ok := t.ports[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "port", Name: name, Task: t.name}
	}
	return p, nil
}

func (t *Task) Port(ctx context.Context, name string) (domain.PortInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("port"); err != nil {
		return domain.PortInfo{}, err
	}
	p, err := t.port(name)
	if err != nil {
		return domain.PortInfo{}, err
	}
	return p.info, nil
}

func (t *Task) Ports(ctx context.Context) ([]domain.PortInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("ports"); err != nil {
		return nil, err
	}
	out := make([]domain.PortInfo, 0, len(t.ports))
	for _, p := range t.ports {
		out = append(out, p.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *Task) ReadPort(ctx context.Context, name string) (any, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("read_port"); err != nil {
		return nil, false, err
	}
	p, err := t.port(name)
	if err != nil {
		return nil, false, err
	}
	return p.sample, p.has, nil
}

func (t *Task) WritePort(ctx context.Context, name string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("write_port"); err != nil {
		return err
	}
	p, err := t.port(name)
	if err != nil {
		return err
	}
	if p.info.Direction != domain.PortInput {
		return fmt.Errorf("port '%s' of '%s' is not an input port", name, t.name)
	}
	p.sample, p.has = value, true
	return nil
}

func (t *Task) attribute(name string) (*attributeState, error) {
	a, ok := t.attributes[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "attribute", Name: name, Task: t.name}
	}
	return a, nil
}

func (t *Task) Attribute(ctx context.Context, name string) (domain.AttributeInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("attribute"); err != nil {
		return domain.AttributeInfo{}, err
	}
	a, err := t.attribute(name)
	if err != nil {
		return domain.AttributeInfo{}, err
	}
	return a.info, nil
}

func (t *Task) Attributes(ctx context.Context) ([]domain.AttributeInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("attributes"); err != nil {
		return nil, err
	}
	out := make([]domain.AttributeInfo, 0, len(t.attributes))
	for _, a := range t.attributes {
		out = append(out, a.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *Task) ReadAttribute(ctx context.Context, name string) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("read_attribute"); err != nil {
		return nil, err
	}
	a, err := t.attribute(name)
	if err != nil {
		return nil, err
	}
	return a.value, nil
}

func (t *Task) WriteAttribute(ctx context.Context, name string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("write_attribute"); err != nil {
		return err
	}
	a, err := t.attribute(name)
	if err != nil {
		return err
	}
	a.value = value
	return nil
}

func isStringType(name string) bool {
	return name == typelib.StringTypeName || name == "string"
}

func (t *Task) ReadAttributeString(ctx context.Context, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("read_attribute_string"); err != nil {
		return "", err
	}
	a, err := t.attribute(name)
	if err != nil {
		return "", err
	}
	if !isStringType(a.info.TypeName) {
		return "", &domain.TypeMismatchError{Name: name, Type: a.info.TypeName, Value: ""}
	}
	s, _ := a.value.(string)
	return s, nil
}

func (t *Task) WriteAttributeString(ctx context.Context, name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("write_attribute_string"); err != nil {
		return err
	}
	a, err := t.attribute(name)
	if err != nil {
		return err
	}
	if !isStringType(a.info.TypeName) {
		return &domain.TypeMismatchError{Name: name, Type: a.info.TypeName, Value: value}
	}
	a.value = value
	return nil
}

func (t *Task) Operations(ctx context.Context) ([]domain.OperationInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("operations"); err != nil {
		return nil, err
	}
	out := make([]domain.OperationInfo, 0, len(t.operations))
	for _, op := range t.operations {
		out = append(out, op.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CallOperation runs the operation outside the task lock, so an operation
// may itself use the task.
func (t *Task) CallOperation(ctx context.Context, name string, args []any) (any, error) {
	t.mu.Lock()
	if err := t.enter("call_operation"); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	op, ok := t.operations[name]
	t.mu.Unlock()
	if !ok {
		return nil, &domain.NotFoundError{Kind: "operation", Name: name, Task: t.name}
	}
	if op.info.ArgTypes != nil && len(args) != len(op.info.ArgTypes) {
		return nil, fmt.Errorf("%w: operation '%s' takes %d arguments, got %d",
			domain.ErrTypeMismatch, name, len(op.info.ArgTypes), len(args))
	}
	if op.fn == nil {
		return nil, nil
	}
	return op.fn(args)
}

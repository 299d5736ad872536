package domain

import "github.com/aretw0/orocos/pkg/typelib"

// PortDirection tells whether a port produces or consumes samples.
type PortDirection string

const (
	PortInput  PortDirection = "input"
	PortOutput PortDirection = "output"
)

// PortInfo is the static declaration of a port.
type PortInfo struct {
	Name      string        `yaml:"name" json:"name" mapstructure:"name"`
	Direction PortDirection `yaml:"direction" json:"direction" mapstructure:"direction"`
	TypeName  string        `yaml:"type" json:"type" mapstructure:"type"`
}

// AttributeInfo is the static declaration of an attribute or property.
type AttributeInfo struct {
	Name     string `yaml:"name" json:"name" mapstructure:"name"`
	TypeName string `yaml:"type" json:"type" mapstructure:"type"`
	// Property is true for configuration properties, false for plain attributes.
	Property bool `yaml:"property,omitempty" json:"property,omitempty" mapstructure:"property"`
	Default  any  `yaml:"default,omitempty" json:"default,omitempty" mapstructure:"default"`
}

// OperationInfo describes an operation a component exports for remote calls.
type OperationInfo struct {
	Name       string   `yaml:"name" json:"name" mapstructure:"name"`
	Doc        string   `yaml:"doc,omitempty" json:"doc,omitempty" mapstructure:"doc"`
	ArgTypes   []string `yaml:"arguments,omitempty" json:"arguments,omitempty" mapstructure:"arguments"`
	ReturnType string   `yaml:"return,omitempty" json:"return,omitempty" mapstructure:"return"`
}

// TaskModel is the parsed definition of one component class.
type TaskModel struct {
	Name       string          `yaml:"name" json:"name" mapstructure:"name"`
	Library    string          `yaml:"-" json:"library" mapstructure:"-"`
	Superclass string          `yaml:"superclass,omitempty" json:"superclass,omitempty" mapstructure:"superclass"`
	Implements []string        `yaml:"implements,omitempty" json:"implements,omitempty" mapstructure:"implements"`
	Ports      []PortInfo      `yaml:"ports,omitempty" json:"ports,omitempty" mapstructure:"ports"`
	Properties []AttributeInfo `yaml:"properties,omitempty" json:"properties,omitempty" mapstructure:"properties"`
	Attributes []AttributeInfo `yaml:"attributes,omitempty" json:"attributes,omitempty" mapstructure:"attributes"`
	Extensions []string        `yaml:"extensions,omitempty" json:"extensions,omitempty" mapstructure:"extensions"`
	Doc        string          `yaml:"doc,omitempty" json:"doc,omitempty" mapstructure:"doc"`
}

// Provides reports whether the model is, derives from or implements the named
// capability. Only the direct superclass is checked; the chain is resolved by
// callers that have access to the other models.
func (m *TaskModel) Provides(capability string) bool {
	if m == nil {
		return false
	}
	if m.Name == capability || m.Superclass == capability {
		return true
	}
	for _, i := range m.Implements {
		if i == capability {
			return true
		}
	}
	return false
}

// Port returns the declared port with the given name.
func (m *TaskModel) Port(name string) (PortInfo, bool) {
	for _, p := range m.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortInfo{}, false
}

// Attribute returns the declared property or attribute with the given name.
func (m *TaskModel) Attribute(name string) (AttributeInfo, bool) {
	for _, a := range m.Properties {
		if a.Name == name {
			return a, true
		}
	}
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeInfo{}, false
}

// TaskLibrary is the parsed definition of a task library.
type TaskLibrary struct {
	Name    string
	Project string
	Tasks   map[string]*TaskModel
	// Order keeps the models in declaration order.
	Order []string
	Types []typelib.Type
}

// Task returns the model declared under name.
func (l *TaskLibrary) Task(name string) (*TaskModel, bool) {
	if l == nil {
		return nil, false
	}
	m, ok := l.Tasks[name]
	return m, ok
}

// TaskActivity is one task instance declared by a deployment.
type TaskActivity struct {
	Name     string  `yaml:"name" json:"name" mapstructure:"name"`
	Model    string  `yaml:"model" json:"model" mapstructure:"model"`
	Activity string  `yaml:"activity,omitempty" json:"activity,omitempty" mapstructure:"activity"`
	Period   float64 `yaml:"period,omitempty" json:"period,omitempty" mapstructure:"period"`
}

// Deployment is the parsed description of a deployment.
type Deployment struct {
	Name       string
	Project    string
	Activities []TaskActivity
}

// Activity returns the task instance declared under name.
func (d *Deployment) Activity(name string) (TaskActivity, bool) {
	if d == nil {
		return TaskActivity{}, false
	}
	for _, a := range d.Activities {
		if a.Name == name {
			return a, true
		}
	}
	return TaskActivity{}, false
}

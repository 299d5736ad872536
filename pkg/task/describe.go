package task

import (
	"context"
	"fmt"
	"strings"
)

// Describe renders a markdown summary of the task: state, model when known,
// attributes and ports.
func (t *TaskContext) Describe(ctx context.Context) (string, error) {
	state, err := t.State(ctx)
	if err != nil {
		return "", err
	}
	attributes, err := t.Attributes(ctx)
	if err != nil {
		return "", err
	}
	ports, err := t.Ports(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Component %s\n\n", t.Name())
	fmt.Fprintf(&b, "- **state:** %s\n", state)
	if m, err := t.Model(ctx); err == nil {
		fmt.Fprintf(&b, "- **model:** %s (%s)\n", m.Name, m.Library)
		if m.Doc != "" {
			fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(m.Doc))
		}
	}
	if t.process != nil {
		fmt.Fprintf(&b, "- **process:** %s (pid %d)\n", t.process.Name, t.process.PID)
	}

	if len(attributes) == 0 {
		b.WriteString("\nNo attributes\n")
	} else {
		b.WriteString("\n## Attributes\n\n")
		for _, a := range attributes {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	if len(ports) == 0 {
		b.WriteString("\nNo ports\n")
	} else {
		b.WriteString("\n## Ports\n\n")
		for _, p := range ports {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String(), nil
}

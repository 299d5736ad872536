package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/orocos/pkg/domain"
)

// Overlay contains runtime data to visualize on the model graph: the models
// of running tasks and of tasks in an error state.
type Overlay struct {
	Running []string
	Errored []string
}

// GenerateMermaid produces a Mermaid flowchart of task models.
// It applies semantic styling:
// - Model: [Rectangle], labelled with its library
// - Model from outside the given set: [/Parallelogram/]
// - Capability (implemented interface): {{Hexagon}}
// Superclass links are solid, capability links dotted. Overlay styles are
// applied if provided.
func GenerateMermaid(models []*domain.TaskModel, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph BT\n")

	known := make(map[string]bool, len(models))
	for _, m := range models {
		known[m.Name] = true
	}
	external := make(map[string]bool)
	capabilities := make(map[string]bool)

	for _, m := range models {
		safeID := sanitizeMermaidID(m.Name)
		label := m.Name
		if m.Library != "" {
			label = fmt.Sprintf("%s <br/> <small>%s</small>", m.Name, m.Library)
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))

		if m.Superclass != "" {
			if !known[m.Superclass] {
				external[m.Superclass] = true
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(m.Superclass)))
		}
		for _, c := range m.Implements {
			if known[c] {
				sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeMermaidID(c)))
				continue
			}
			capabilities[c] = true
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, capabilityID(c)))
		}
	}

	for _, name := range sortedKeys(external) {
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", sanitizeMermaidID(name), name))
	}
	for _, name := range sortedKeys(capabilities) {
		sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", capabilityID(name), name))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef running fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef errored fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		writeClass(&sb, overlay.Running, "running")
		writeClass(&sb, overlay.Errored, "errored")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		safeID := sanitizeMermaidID(name)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// capabilityID keeps capabilities apart from models of the same name.
func capabilityID(name string) string {
	return "cap_" + sanitizeMermaidID(name)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, "::", "__")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

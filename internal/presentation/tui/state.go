package tui

import (
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/muesli/termenv"
)

var stateColors = map[domain.TaskState]string{
	domain.StatePreOperational: "#94a3b8",
	domain.StateStopped:        "#facc15",
	domain.StateRunning:        "#4ade80",
	domain.StateRuntimeWarning: "#fb923c",
	domain.StateRuntimeError:   "#f87171",
	domain.StateFatalError:     "#dc2626",
}

// StateString renders a lifecycle state colored for profile. Error states are
// bold. termenv.Ascii yields the bare state name.
func StateString(profile termenv.Profile, s domain.TaskState) string {
	out := profile.String(s.String())
	if color, ok := stateColors[s]; ok {
		out = out.Foreground(profile.Color(color))
	}
	if s.Error() {
		out = out.Bold()
	}
	return out.String()
}

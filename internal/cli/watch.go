package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/internal/presentation/tui"
	"github.com/aretw0/orocos/pkg/task"
	"github.com/muesli/termenv"
)

// RunWatch prints the state of the named tasks (all reachable tasks when
// names is empty), then every change, until ctx is done.
func RunWatch(ctx context.Context, client *orocos.Client, interval time.Duration, out io.Writer, profile termenv.Profile, names ...string) error {
	return client.Watch(ctx, interval, func(e task.WatchEvent) {
		stamp := time.Now().Format("15:04:05.000")
		if e.Err != nil {
			fmt.Fprintf(out, "%s  %-24s %s\n", stamp, e.Task, profile.String("unreachable: "+e.Err.Error()).Faint())
			return
		}
		fmt.Fprintf(out, "%s  %-24s %s\n", stamp, e.Task, tui.StateString(profile, e.State))
	}, names...)
}

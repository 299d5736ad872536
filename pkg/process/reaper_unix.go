//go:build unix

package process

import (
	"os"
	"os/signal"
	"syscall"
)

// run installs the SIGCHLD handler. Only the processes registered in the set
// are waited for, so children started elsewhere through os/exec keep their
// exit status for their own Wait.
func (r *Reaper) run() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGCHLD)

	go func() {
		defer close(r.stopped)
		defer signal.Stop(sigs)

		// Children that died before the handler was installed.
		r.reap()
		for {
			select {
			case <-r.stop:
				return
			case <-sigs:
				r.reap()
			}
		}
	}()
}

func (r *Reaper) reap() {
	for _, p := range r.set.All() {
		if !p.Alive() {
			continue
		}
		for {
			var ws syscall.WaitStatus
			pid, err := syscall.Wait4(p.PID, &ws, syscall.WNOHANG, nil)
			if err == syscall.EINTR {
				continue
			}
			// ECHILD: not a child of this process, nothing to collect.
			if err == nil && pid == p.PID {
				r.record(pid, exitStatus(ws))
			}
			break
		}
	}
}

func exitStatus(ws syscall.WaitStatus) ExitStatus {
	if ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}
	}
	return ExitStatus{Code: ws.ExitStatus()}
}

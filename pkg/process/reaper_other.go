//go:build !unix

package process

// run only waits for Stop on platforms without SIGCHLD.
func (r *Reaper) run() {
	go func() {
		<-r.stop
		close(r.stopped)
	}()
}

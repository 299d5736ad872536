// Package process tracks the local processes hosting components and the
// death notifications delivered for them.
package process

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
)

// ExitStatus describes how a process terminated.
type ExitStatus struct {
	Code   int    // Exit code, -1 if killed by a signal
	Signal string // Terminating signal, if any
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "killed by " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Success reports a clean exit.
func (s ExitStatus) Success() bool { return s.Code == 0 && s.Signal == "" }

// Process is a handle on a locally spawned deployment. Spawning and killing
// are done elsewhere; the handle only records what runs where.
type Process struct {
	Name      string
	PID       int
	TaskNames []string
	// Deployment is the parsed description of the deployment the process runs,
	// or nil if it was not produced from a known deployment.
	Deployment *domain.Deployment

	mu     sync.Mutex
	dead   bool
	status ExitStatus
	done   chan struct{}
}

// New creates a handle on a running process.
func New(name string, pid int, taskNames []string, deployment *domain.Deployment) *Process {
	return &Process{
		Name:       name,
		PID:        pid,
		TaskNames:  append([]string(nil), taskNames...),
		Deployment: deployment,
		done:       make(chan struct{}),
	}
}

// HasTask reports whether the process hosts the task called name.
func (p *Process) HasTask(name string) bool {
	for _, n := range p.TaskNames {
		if n == name {
			return true
		}
	}
	return false
}

// MarkDead records the termination of the process. Only the first call has an
// effect.
func (p *Process) MarkDead(status ExitStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead {
		return
	}
	p.dead = true
	p.status = status
	close(p.done)
}

// Alive reports whether no death has been recorded.
func (p *Process) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.dead
}

// Status returns the exit status; ok is false while the process is alive.
func (p *Process) Status() (status ExitStatus, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.dead
}

// Done is closed when the process is marked dead.
func (p *Process) Done() <-chan struct{} { return p.done }

// Set is the collection of known processes. Safe for concurrent use, as the
// reaper updates it from its own goroutine.
type Set struct {
	mu    sync.RWMutex
	procs map[int]*Process
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{procs: make(map[int]*Process)}
}

// Register adds p, replacing any process with the same PID.
func (s *Set) Register(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs[p.PID] = p
}

// Remove forgets p.
func (s *Set) Remove(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.procs[p.PID] == p {
		delete(s.procs, p.PID)
	}
}

// FromPID returns the process with the given PID.
func (s *Set) FromPID(pid int) (*Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procs[pid]
	return p, ok
}

// ForTask returns a live process listing name among its tasks. The lowest
// PID wins when several do.
func (s *Set) ForTask(name string) (*Process, bool) {
	for _, p := range s.All() {
		if p.Alive() && p.HasTask(name) {
			return p, true
		}
	}
	return nil, false
}

// All returns the known processes ordered by PID.
func (s *Set) All() []*Process {
	s.mu.RLock()
	out := make([]*Process, 0, len(s.procs))
	for _, p := range s.procs {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Each calls fn for every known process, ordered by PID.
func (s *Set) Each(fn func(*Process)) {
	for _, p := range s.All() {
		fn(p)
	}
}

// Reap marks the process with the given PID dead. It returns false if the PID
// is unknown.
func (s *Set) Reap(pid int, status ExitStatus) bool {
	p, ok := s.FromPID(pid)
	if !ok {
		return false
	}
	p.MarkDead(status)
	return true
}

package process_test

import (
	"testing"

	"github.com/aretw0/orocos/pkg/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Lookup(t *testing.T) {
	set := process.NewSet()
	nav := process.New("nav_test", 200, []string{"controller", "planner"}, nil)
	base := process.New("base_test", 100, []string{"logger", "controller"}, nil)
	set.Register(nav)
	set.Register(base)

	p, ok := set.FromPID(200)
	require.True(t, ok)
	assert.Same(t, nav, p)

	p, ok = set.ForTask("planner")
	require.True(t, ok)
	assert.Same(t, nav, p)

	p, ok = set.ForTask("controller")
	require.True(t, ok)
	assert.Same(t, base, p, "lowest PID wins")

	base.MarkDead(process.ExitStatus{Code: 1})
	p, _ = set.ForTask("controller")
	assert.Same(t, nav, p, "dead processes are skipped")

	_, ok = set.ForTask("ghost")
	assert.False(t, ok)

	set.Remove(nav)
	_, ok = set.FromPID(200)
	assert.False(t, ok)
}

func TestProcess_MarkDead(t *testing.T) {
	p := process.New("nav_test", 42, nil, nil)
	assert.True(t, p.Alive())
	_, dead := p.Status()
	assert.False(t, dead)

	p.MarkDead(process.ExitStatus{Code: -1, Signal: "terminated"})
	p.MarkDead(process.ExitStatus{Code: 0})

	status, dead := p.Status()
	assert.True(t, dead)
	assert.Equal(t, "killed by terminated", status.String())
	assert.False(t, status.Success())
	select {
	case <-p.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestSet_Reap(t *testing.T) {
	set := process.NewSet()
	p := process.New("nav_test", 7, nil, nil)
	set.Register(p)

	assert.False(t, set.Reap(8, process.ExitStatus{}))
	assert.True(t, set.Reap(7, process.ExitStatus{Code: 0}))
	assert.False(t, p.Alive())
}

func TestReaper_StopWithoutStart(t *testing.T) {
	r := process.NewReaper(process.NewSet())
	r.Stop()
	r.Stop()
	r.Start()
}

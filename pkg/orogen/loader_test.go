package orogen_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/orogen"
	"github.com/aretw0/orocos/pkg/typelib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navDefinition = `
name: nav
types:
  - name: /Nav/Pose
    kind: compound
    fields:
      - {name: x, type: /double}
      - {name: y, type: /double}
tasks:
  - name: Controller
    implements: [Nav::Follower]
    extensions: [transformer]
    ports:
      - {name: pose, direction: output, type: /Nav/Pose}
      - {name: target, direction: input, type: /Nav/Pose}
    properties:
      - {name: gain, type: /int32_t, default: 2}
  - name: Nav::Planner
    superclass: Controller
deployments:
  - name: nav_test
    tasks:
      - {name: controller, model: Controller, activity: periodic, period: 0.1}
`

func newLoader() *orogen.Loader {
	return orogen.NewLoader(orogen.WithFS(fstest.MapFS{
		"opt/nav/nav.orogen":       {Data: []byte(navDefinition)},
		"opt/nav/nav.tlb":          {Data: []byte("types:\n  - {name: /Nav/Id, kind: uint, size: 4}\n")},
		"opt/nav/nav.typelist":     {Data: []byte("/Nav/Id 1\n/Nav/InternalState 0\n")},
		"opt/nav/broken.orogen":    {Data: []byte("name: broken\nmystery: true\n")},
		"opt/nav/bad-ports.orogen": {Data: []byte("tasks:\n  - name: T\n    ports:\n      - {name: p, direction: sideways, type: /double}\n")},
	}))
}

func TestLoader_TaskLibrary(t *testing.T) {
	lib, err := newLoader().LoadTaskLibrary(context.Background(), "nav", "/opt/nav/nav.orogen")
	require.NoError(t, err)

	assert.Equal(t, "nav", lib.Project)
	assert.Equal(t, []string{"nav::Controller", "Nav::Planner"}, lib.Order)

	ctrl, ok := lib.Task("nav::Controller")
	require.True(t, ok)
	assert.Equal(t, "nav", ctrl.Library)
	assert.Equal(t, []string{"transformer"}, ctrl.Extensions)
	assert.True(t, ctrl.Provides("Nav::Follower"))

	pose, ok := ctrl.Port("pose")
	require.True(t, ok)
	assert.Equal(t, domain.PortOutput, pose.Direction)

	gain, ok := ctrl.Attribute("gain")
	require.True(t, ok)
	assert.Equal(t, "/int32_t", gain.TypeName)

	planner, _ := lib.Task("Nav::Planner")
	assert.Equal(t, "nav::Controller", planner.Superclass)

	require.Len(t, lib.Types, 1)
	assert.Equal(t, typelib.KindCompound, lib.Types[0].Kind)
}

func TestLoader_Deployment(t *testing.T) {
	l := newLoader()
	ctx := context.Background()

	dep, err := l.LoadDeployment(ctx, "nav_test", "/opt/nav/nav.orogen")
	require.NoError(t, err)
	act, ok := dep.Activity("controller")
	require.True(t, ok)
	assert.Equal(t, "nav::Controller", act.Model)
	assert.Equal(t, 0.1, act.Period)

	// A single deployment answers for the package name.
	_, err = l.LoadDeployment(ctx, "orogen_default_nav", "/opt/nav/nav.orogen")
	assert.NoError(t, err)
}

func TestLoader_TypesAndTypelist(t *testing.T) {
	l := newLoader()
	ctx := context.Background()

	types, err := l.LoadTypes(ctx, "/opt/nav/nav.tlb")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "/Nav/Id", types[0].Name)

	tl, err := l.ReadTypelist(ctx, typelib.TypelistPath("/opt/nav/nav.tlb"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/Nav/Id"}, tl.Exported)
}

func TestLoader_Errors(t *testing.T) {
	l := newLoader()
	ctx := context.Background()

	_, err := l.LoadTaskLibrary(ctx, "broken", "/opt/nav/broken.orogen")
	assert.ErrorContains(t, err, "mystery")

	_, err = l.LoadTaskLibrary(ctx, "bad", "/opt/nav/bad-ports.orogen")
	assert.ErrorContains(t, err, "invalid direction")

	_, err = l.LoadTaskLibrary(ctx, "missing", "/opt/nav/missing.orogen")
	assert.Error(t, err)

	_, err = l.LoadTaskLibrary(ctx, "nav", "")
	assert.Error(t, err)
}

// Package tests provides contract suites shared by every adapter of the
// interfaces in package ports.
package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NamingDirectoryContractTest verifies that an adapter complies with
// ports.NamingDirectory. The directory must start empty.
func NamingDirectoryContractTest(t *testing.T, dir ports.NamingDirectory) {
	t.Helper()
	ctx := context.Background()

	t.Run("Resolve_NotFound", func(t *testing.T) {
		_, err := dir.Resolve(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Register_Resolve", func(t *testing.T) {
		require.NoError(t, dir.Register(ctx, "contract-a", "endpoint-a"))
		endpoint, err := dir.Resolve(ctx, "contract-a")
		require.NoError(t, err)
		assert.Equal(t, "endpoint-a", endpoint)

		require.NoError(t, dir.Register(ctx, "contract-a", "endpoint-a2"))
		endpoint, err = dir.Resolve(ctx, "contract-a")
		require.NoError(t, err)
		assert.Equal(t, "endpoint-a2", endpoint, "Register should replace")
	})

	t.Run("List_Sorted", func(t *testing.T) {
		require.NoError(t, dir.Register(ctx, "contract-c", "endpoint-c"))
		require.NoError(t, dir.Register(ctx, "contract-b", "endpoint-b"))
		names, err := dir.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract-a", "contract-b", "contract-c"}, names)
	})

	t.Run("Unregister", func(t *testing.T) {
		require.NoError(t, dir.Unregister(ctx, "contract-b"))
		_, err := dir.Resolve(ctx, "contract-b")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, dir.Unregister(ctx, "contract-b"), "unknown names are ignored")
	})
}

// Fixture of the task expected by RemoteTaskContractTest.
var (
	ContractTaskName = "contract_task"
	ContractPorts    = []domain.PortInfo{
		{Name: "cmd", Direction: domain.PortInput, TypeName: "/double"},
		{Name: "pose", Direction: domain.PortOutput, TypeName: "/double"},
		{Name: "pose/filtered", Direction: domain.PortOutput, TypeName: "/double"},
	}
	ContractAttributes = []domain.AttributeInfo{
		{Name: "gain", TypeName: "/int32_t", Property: true, Default: int64(1)},
		{Name: "label", TypeName: "/std/string", Default: "initial"},
		{Name: "limits/max", TypeName: "/double", Default: 2.5},
	}
	ContractOperations = []domain.OperationInfo{
		{Name: "add", ArgTypes: []string{"/double", "/double"}, ReturnType: "/double"},
		{Name: "reset"},
	}
	// ContractOperationFuncs implements ContractOperations. Operations missing
	// from the map return nothing.
	ContractOperationFuncs = map[string]func(args []any) (any, error){
		"add": func(args []any) (any, error) {
			var sum float64
			for _, a := range args {
				switch n := a.(type) {
				case float64:
					sum += n
				case int:
					sum += float64(n)
				case int64:
					sum += float64(n)
				default:
					return nil, fmt.Errorf("add: unsupported argument %T", a)
				}
			}
			return sum, nil
		},
	}
)

// RemoteTaskContractTest verifies that an adapter complies with
// ports.RemoteTask. task must be a fresh PRE_OPERATIONAL instance called
// ContractTaskName declaring ContractPorts and ContractAttributes with their
// default values, exporting ContractOperations, and no sample written on any
// port.
func RemoteTaskContractTest(t *testing.T, task ports.RemoteTask) {
	t.Helper()
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		assert.Equal(t, ContractTaskName, task.Name())
	})

	t.Run("Lifecycle", func(t *testing.T) {
		state, err := task.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.StatePreOperational, state)

		_, err = task.Start(ctx)
		assert.ErrorIs(t, err, domain.ErrStateTransition, "start from PRE_OPERATIONAL")

		steps := []struct {
			call func(context.Context) (bool, error)
			want domain.TaskState
		}{
			{task.Configure, domain.StateStopped},
			{task.Start, domain.StateRunning},
			{task.Stop, domain.StateStopped},
			{task.Cleanup, domain.StatePreOperational},
		}
		for _, step := range steps {
			ok, err := step.call(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			state, err := task.State(ctx)
			require.NoError(t, err)
			assert.Equal(t, step.want, state)
		}

		_, err = task.Stop(ctx)
		assert.ErrorIs(t, err, domain.ErrStateTransition, "stop from PRE_OPERATIONAL")
	})

	t.Run("Ports", func(t *testing.T) {
		ok, err := task.HasPort(ctx, "pose")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = task.HasPort(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		info, err := task.Port(ctx, "pose")
		require.NoError(t, err)
		assert.Equal(t, domain.PortOutput, info.Direction)

		_, err = task.Port(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		all, err := task.Ports(ctx)
		require.NoError(t, err)
		assert.Equal(t, ContractPorts, all)
	})

	t.Run("PortData", func(t *testing.T) {
		_, ok, err := task.ReadPort(ctx, "pose")
		require.NoError(t, err)
		assert.False(t, ok, "no sample yet")

		require.NoError(t, task.WritePort(ctx, "cmd", 1.5))
		v, ok, err := task.ReadPort(ctx, "cmd")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 1.5, v)
	})

	t.Run("Attributes", func(t *testing.T) {
		all, err := task.Attributes(ctx)
		require.NoError(t, err)
		require.Len(t, all, len(ContractAttributes))
		assert.Equal(t, "gain", all[0].Name)

		info, err := task.Attribute(ctx, "label")
		require.NoError(t, err)
		assert.Equal(t, "/std/string", info.TypeName)

		_, err = task.Attribute(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = task.ReadAttribute(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("AttributeData", func(t *testing.T) {
		v, err := task.ReadAttribute(ctx, "gain")
		require.NoError(t, err)
		assert.EqualValues(t, 1, v)

		require.NoError(t, task.WriteAttribute(ctx, "gain", int64(5)))
		v, err = task.ReadAttribute(ctx, "gain")
		require.NoError(t, err)
		assert.EqualValues(t, 5, v)

		s, err := task.ReadAttributeString(ctx, "label")
		require.NoError(t, err)
		assert.Equal(t, "initial", s)

		require.NoError(t, task.WriteAttributeString(ctx, "label", "hello"))
		s, err = task.ReadAttributeString(ctx, "label")
		require.NoError(t, err)
		assert.Equal(t, "hello", s)

		err = task.WriteAttributeString(ctx, "gain", "hello")
		assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	})

	t.Run("SlashedNames", func(t *testing.T) {
		ok, err := task.HasPort(ctx, "pose/filtered")
		require.NoError(t, err)
		assert.True(t, ok)

		info, err := task.Port(ctx, "pose/filtered")
		require.NoError(t, err)
		assert.Equal(t, "pose/filtered", info.Name)

		_, ok, err = task.ReadPort(ctx, "pose/filtered")
		require.NoError(t, err)
		assert.False(t, ok)

		v, err := task.ReadAttribute(ctx, "limits/max")
		require.NoError(t, err)
		assert.EqualValues(t, 2.5, v)

		require.NoError(t, task.WriteAttribute(ctx, "limits/max", 3.5))
		v, err = task.ReadAttribute(ctx, "limits/max")
		require.NoError(t, err)
		assert.EqualValues(t, 3.5, v)
	})

	t.Run("Operations", func(t *testing.T) {
		ops, err := task.Operations(ctx)
		require.NoError(t, err)
		assert.Equal(t, ContractOperations, ops)

		v, err := task.CallOperation(ctx, "add", []any{1.5, 2.0})
		require.NoError(t, err)
		assert.EqualValues(t, 3.5, v)

		v, err = task.CallOperation(ctx, "reset", nil)
		require.NoError(t, err)
		assert.Nil(t, v)

		_, err = task.CallOperation(ctx, "add", []any{1.0})
		assert.ErrorIs(t, err, domain.ErrTypeMismatch)

		_, err = task.CallOperation(ctx, "missing", nil)
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "operation", nf.Kind)
		assert.Equal(t, "missing", nf.Name)
	})
}

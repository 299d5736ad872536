package memory_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContractTask() *memory.Task {
	model := &domain.TaskModel{
		Name:       "contract::Task",
		Ports:      tests.ContractPorts,
		Properties: tests.ContractAttributes[:1],
		Attributes: tests.ContractAttributes[1:],
	}
	task := memory.NewTaskFromModel(tests.ContractTaskName, model)
	for _, op := range tests.ContractOperations {
		task.AddOperation(op, tests.ContractOperationFuncs[op.Name])
	}
	return task
}

func TestNaming_Contract(t *testing.T) {
	tests.NamingDirectoryContractTest(t, memory.NewNaming())
}

func TestTask_Contract(t *testing.T) {
	tests.RemoteTaskContractTest(t, newContractTask())
}

func TestTask_RefusedTransition(t *testing.T) {
	task := memory.NewTask("refusing")
	task.ConfigureHook = func() bool { return false }

	ok, err := task.Configure(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	state, _ := task.State(context.Background())
	assert.Equal(t, domain.StatePreOperational, state)
}

func TestTask_FaultInjection(t *testing.T) {
	task := memory.NewTask("faulty")
	boom := errors.New("connection reset")
	task.Fail(boom)

	_, err := task.State(context.Background())
	assert.ErrorIs(t, err, boom)

	task.Fail(nil)
	_, err = task.State(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, task.Calls("state"))
}

func TestTask_WriteOutputPortFails(t *testing.T) {
	task := memory.NewTask("t", memory.WithPort("out", domain.PortOutput, "/double"))
	assert.Error(t, task.WritePort(context.Background(), "out", 1.0))

	task.Publish("out", 2.0)
	v, ok, err := task.ReadPort(context.Background(), "out")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestCatalog_FiltersInOrder(t *testing.T) {
	c := memory.NewCatalog(
		domain.PackageEntry{Name: "nav-tasks-gnulinux"},
		domain.PackageEntry{Name: "orogen-project-nav"},
		domain.PackageEntry{Name: "base-tasks-gnulinux"},
	)
	pkgs, err := c.Packages(context.Background(), regexp.MustCompile(`-tasks-gnulinux$`))
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "nav-tasks-gnulinux", pkgs[0].Name)
	assert.Equal(t, "base-tasks-gnulinux", pkgs[1].Name)
	assert.Equal(t, 1, c.Scans())
}

func TestTransport_ConnectUnknown(t *testing.T) {
	tr := memory.NewTransport()
	_, err := tr.Connect(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	naming := memory.NewNaming()
	require.NoError(t, memory.Publish(context.Background(), tr, naming, memory.NewTask("nav")))
	endpoint, err := naming.Resolve(context.Background(), "nav")
	require.NoError(t, err)
	assert.Equal(t, "memory://nav", endpoint)
	assert.Equal(t, []string{"nav"}, tr.Names())
}

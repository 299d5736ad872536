package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/internal/presentation/graph"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/task"
)

// Table is a header and its rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Inventories lists the kinds accepted by Inventory.
var Inventories = []string{"projects", "libraries", "deployments", "typekits", "models", "types", "tasks"}

// Inventory tabulates one of the registry catalogs, or the running tasks.
func Inventory(ctx context.Context, client *orocos.Client, kind string) (Table, error) {
	reg := client.Registry()
	switch kind {
	case "projects":
		t := Table{Header: []string{"PROJECT", "DEFFILE", "TYPE REGISTRY"}}
		for _, p := range reg.Projects() {
			t.Rows = append(t.Rows, []string{p.Name, p.DefFile, p.TypeRegistry})
		}
		return t, nil
	case "libraries":
		t := Table{Header: []string{"LIBRARY", "PACKAGE", "VERSION"}}
		for _, l := range reg.TaskLibraries() {
			t.Rows = append(t.Rows, []string{l.Name, l.Package.Name, l.Package.Version})
		}
		return t, nil
	case "deployments":
		t := Table{Header: []string{"DEPLOYMENT", "PROJECT", "DEFFILE"}}
		for _, d := range reg.Deployments() {
			t.Rows = append(t.Rows, []string{d.Name, d.Package.ProjectName, d.Package.DefFile})
		}
		return t, nil
	case "typekits":
		t := Table{Header: []string{"TYPEKIT", "REGISTRY", "TYPELIST"}}
		for _, k := range reg.TypeKits() {
			t.Rows = append(t.Rows, []string{k.Name, k.Package.TypeRegistry, k.TypeList})
		}
		return t, nil
	case "models":
		t := Table{Header: []string{"MODEL", "LIBRARY"}}
		models := reg.TaskModels()
		for _, name := range reg.TaskModelNames() {
			t.Rows = append(t.Rows, []string{name, models[name]})
		}
		return t, nil
	case "types":
		t := Table{Header: []string{"TYPE", "TYPEKIT", "EXPORTED"}}
		types := reg.Types()
		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := types[name]
			t.Rows = append(t.Rows, []string{e.Name, e.TypeKit, strconv.FormatBool(e.Exported)})
		}
		return t, nil
	case "tasks":
		t := Table{Header: []string{"TASK", "STATE", "MODEL"}}
		err := client.EachTask(ctx, func(tc *task.TaskContext) error {
			row := []string{tc.Name(), "?", ""}
			if state, err := tc.State(ctx); err == nil {
				row[1] = state.String()
			}
			if m, err := tc.Model(ctx); err == nil {
				row[2] = m.Name
			}
			t.Rows = append(t.Rows, row)
			return nil
		})
		return t, err
	}
	return Table{}, fmt.Errorf("unknown inventory %q", kind)
}

// ModelGraph renders the known task models as a Mermaid graph. With overlay
// set, the models of running and failed tasks are highlighted.
func ModelGraph(ctx context.Context, client *orocos.Client, overlay bool) (string, error) {
	reg := client.Registry()
	var models []*domain.TaskModel
	for _, name := range reg.TaskModelNames() {
		m, err := reg.ResolveTaskModel(ctx, name)
		if err != nil {
			return "", err
		}
		models = append(models, m)
	}
	if !overlay {
		return graph.GenerateMermaid(models, nil), nil
	}

	ov := &graph.Overlay{}
	err := client.EachTask(ctx, func(tc *task.TaskContext) error {
		m, err := tc.Model(ctx)
		if err != nil {
			return nil
		}
		state, err := tc.State(ctx)
		switch {
		case err != nil:
		case state.Error():
			ov.Errored = append(ov.Errored, m.Name)
		case state.Running():
			ov.Running = append(ov.Running, m.Name)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(models, ov), nil
}

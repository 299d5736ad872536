package pkgconfig_test

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/aretw0/orocos/pkg/adapters/pkgconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navTasks = `# generated
prefix=/opt/nav
libdir=${prefix}/lib
project_name=nav
deffile=${prefix}/share/orogen/nav.orogen
task_models=nav::Controller,nav::Planner

Name: nav-tasks
Description: navigation components
Version: 1.2.0
Libs: -L${libdir} -lnav-tasks-gnulinux
`

func TestParse(t *testing.T) {
	f, err := pkgconfig.Parse([]byte(navTasks))
	require.NoError(t, err)

	assert.Equal(t, "/opt/nav/lib", f.Variable("libdir"))
	assert.Equal(t, "/opt/nav/share/orogen/nav.orogen", f.Variable("deffile"))
	assert.Equal(t, "nav::Controller,nav::Planner", f.Variable("task_models"))
	assert.Equal(t, "1.2.0", f.Version())
	assert.Equal(t, "-L/opt/nav/lib -lnav-tasks-gnulinux", f.Fields["Libs"])
}

func TestParse_Edges(t *testing.T) {
	f, err := pkgconfig.Parse([]byte("a=${missing}/x\nb=${a\nc=one \\\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, "/x", f.Variable("a"), "unknown references expand to nothing")
	assert.Equal(t, "${a", f.Variable("b"))
	assert.Equal(t, "one two", f.Variable("c"), "continuation lines are joined")

	_, err = pkgconfig.Parse([]byte("no separator here\n"))
	assert.Error(t, err)
}

func TestCatalog_Packages(t *testing.T) {
	fsys := fstest.MapFS{
		"first/nav-tasks-gnulinux.pc":          {Data: []byte(navTasks)},
		"first/broken-tasks-gnulinux.pc":       {Data: []byte("garbage\n")},
		"first/README":                         {Data: []byte("not a package")},
		"second/nav-tasks-gnulinux.pc":         {Data: []byte("project_name=shadowed\n")},
		"second/base-typekit-gnulinux.pc":      {Data: []byte("type_registry=/opt/base/base.tlb\nVersion: 0.1\n")},
		"second/orogen-project-base.pc":        {Data: []byte("project_name=base\ndeffile=/opt/base/base.orogen\n")},
		"second/sub/ignored-tasks-gnulinux.pc": {Data: []byte("")},
	}
	catalog := pkgconfig.New([]string{"/first", "", "/missing", "/second"}, pkgconfig.WithFS(fsys))
	assert.Equal(t, []string{"/first", "/missing", "/second"}, catalog.Dirs())
	ctx := context.Background()

	tasks, err := catalog.Packages(ctx, regexp.MustCompile(`-tasks-gnulinux$`))
	require.NoError(t, err)
	require.Len(t, tasks, 1, "unparsable files are skipped")
	nav := tasks[0]
	assert.Equal(t, "nav-tasks-gnulinux", nav.Name)
	assert.Equal(t, "nav", nav.ProjectName, "first directory wins")
	assert.Equal(t, "/opt/nav/share/orogen/nav.orogen", nav.DefFile)
	assert.Equal(t, "1.2.0", nav.Version)
	assert.Equal(t, "/first/nav-tasks-gnulinux.pc", nav.Path)

	kits, err := catalog.Packages(ctx, regexp.MustCompile(`-typekit-gnulinux$`))
	require.NoError(t, err)
	require.Len(t, kits, 1)
	assert.Equal(t, "/opt/base/base.tlb", kits[0].TypeRegistry)

	all, err := catalog.Packages(ctx, regexp.MustCompile(`.`))
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"base-typekit-gnulinux", "nav-tasks-gnulinux", "orogen-project-base"}, names)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(pkgconfig.PathEnv, "/a:/b")
	assert.Equal(t, []string{"/a", "/b"}, pkgconfig.FromEnv().Dirs())
}

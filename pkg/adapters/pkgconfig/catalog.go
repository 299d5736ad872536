package pkgconfig

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
)

// PathEnv is the environment variable listing the directories scanned by
// FromEnv.
const PathEnv = "PKG_CONFIG_PATH"

// Catalog implements ports.PackageCatalog by scanning directories for ".pc"
// files. When the same package name is found in several directories, the
// first directory wins, as with pkg-config itself.
type Catalog struct {
	dirs     []string
	logger   *slog.Logger
	readDir  func(dir string) ([]fs.DirEntry, error)
	readFile func(path string) ([]byte, error)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used to report unreadable files.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFS reads directories from fsys instead of the OS filesystem. Absolute
// paths are made relative to the root of fsys.
func WithFS(fsys fs.FS) Option {
	return func(c *Catalog) {
		rel := func(p string) string {
			p = strings.TrimPrefix(p, "/")
			if p == "" {
				return "."
			}
			return p
		}
		c.readDir = func(dir string) ([]fs.DirEntry, error) { return fs.ReadDir(fsys, rel(dir)) }
		c.readFile = func(path string) ([]byte, error) { return fs.ReadFile(fsys, rel(path)) }
	}
}

// New creates a catalog scanning dirs, in order.
func New(dirs []string, opts ...Option) *Catalog {
	c := &Catalog{
		logger:   logging.NewNop(),
		readDir:  os.ReadDir,
		readFile: os.ReadFile,
	}
	for _, d := range dirs {
		if d = strings.TrimSpace(d); d != "" {
			c.dirs = append(c.dirs, d)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromEnv creates a catalog scanning the directories listed in
// PKG_CONFIG_PATH.
func FromEnv(opts ...Option) *Catalog {
	return New(filepath.SplitList(os.Getenv(PathEnv)), opts...)
}

// Dirs returns the scanned directories.
func (c *Catalog) Dirs() []string { return append([]string(nil), c.dirs...) }

// Packages returns the packages whose name matches pattern, sorted by name.
// Missing directories are ignored; unparsable files are logged and skipped.
func (c *Catalog) Packages(ctx context.Context, pattern *regexp.Regexp) ([]domain.PackageEntry, error) {
	found := make(map[string]string)
	for _, dir := range c.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := c.readDir(dir)
		if err != nil {
			c.logger.Debug("skipping pkg-config directory", "dir", dir, "error", err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".pc") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".pc")
			if _, seen := found[name]; seen || !pattern.MatchString(name) {
				continue
			}
			found[name] = filepath.Join(dir, e.Name())
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.PackageEntry, 0, len(names))
	for _, name := range names {
		entry, ok := c.load(name, found[name])
		if ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (c *Catalog) load(name, path string) (domain.PackageEntry, bool) {
	data, err := c.readFile(path)
	if err != nil {
		c.logger.Warn("cannot read pkg-config file", "package", name, "path", path, "error", err)
		return domain.PackageEntry{}, false
	}
	f, err := Parse(data)
	if err != nil {
		c.logger.Warn("cannot parse pkg-config file", "package", name, "path", path, "error", err)
		return domain.PackageEntry{}, false
	}
	return domain.PackageEntry{
		Name:         name,
		ProjectName:  f.Variable("project_name"),
		DefFile:      f.Variable("deffile"),
		TaskModels:   f.Variable("task_models"),
		TypeRegistry: f.Variable("type_registry"),
		Version:      f.Version(),
		Path:         path,
	}, true
}

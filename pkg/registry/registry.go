package registry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/project"
	"github.com/aretw0/orocos/pkg/typelib"
)

// DefaultTarget is the deployment target used when none is configured.
const DefaultTarget = "gnulinux"

var (
	projectPattern    = regexp.MustCompile(`^orogen-project-`)
	deploymentPattern = regexp.MustCompile(`^orogen-\w+$`)
)

// Registry is the discovery engine. Each catalog is nil until it has been
// scanned, so that a loaded but empty catalog is never rescanned.
type Registry struct {
	catalog    ports.PackageCatalog
	loader     ports.DefinitionLoader
	target     string
	logger     *slog.Logger
	extensions *Extensions

	master *project.Master

	projects      map[string]domain.ProjectDescription
	taskLibraries map[string]domain.TaskLibraryEntry
	deployments   map[string]domain.DeploymentEntry
	typeKits      map[string]domain.TypeKitEntry
	taskModels    map[string]string
	types         map[string]domain.TypeEntry

	// Scan order, used to make last-wins merges deterministic.
	libraryOrder []string
	typeKitOrder []string

	seenExtensions map[string]bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithTarget sets the deployment target used to filter task library and type
// kit package names.
func WithTarget(target string) Option {
	return func(r *Registry) {
		if target != "" {
			r.target = target
		}
	}
}

// WithLogger sets the logger used for discovery warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExtensions sets the extension callback table.
func WithExtensions(ext *Extensions) Option {
	return func(r *Registry) {
		if ext != nil {
			r.extensions = ext
		}
	}
}

// New creates a registry. Nothing is scanned until Load is called.
func New(catalog ports.PackageCatalog, loader ports.DefinitionLoader, opts ...Option) *Registry {
	r := &Registry{
		catalog:        catalog,
		loader:         loader,
		target:         DefaultTarget,
		logger:         logging.NewNop(),
		extensions:     NewExtensions(),
		seenExtensions: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Target returns the deployment target.
func (r *Registry) Target() string { return r.target }

func (r *Registry) taskLibraryPattern() *regexp.Regexp {
	return regexp.MustCompile(`-tasks-` + regexp.QuoteMeta(r.target) + `$`)
}

func (r *Registry) typeKitPattern() *regexp.Regexp {
	return regexp.MustCompile(`-typekit-` + regexp.QuoteMeta(r.target) + `$`)
}

// Loaded reports whether Load has been called successfully at least once.
func (r *Registry) Loaded() bool { return r.master != nil }

// Master returns the master project, or nil before the first Load.
func (r *Registry) Master() *project.Master { return r.master }

// TypeRegistry returns the type registry of the master project, or nil before
// the first Load.
func (r *Registry) TypeRegistry() *typelib.Registry {
	if r.master == nil {
		return nil
	}
	return r.master.Registry()
}

// Load scans the package catalog. It is idempotent: the projects catalog is
// refreshed on every call (only new projects are added) while the other
// catalogs are scanned once. Malformed packages are logged and skipped; only
// a failing catalog source aborts, leaving the affected catalog unloaded.
func (r *Registry) Load(ctx context.Context) error {
	if r.master == nil {
		r.master = project.NewMaster(r.loader, project.WithLogger(r.logger))
	}
	if r.projects == nil {
		r.projects = make(map[string]domain.ProjectDescription)
	}

	pkgs, err := r.catalog.Packages(ctx, projectPattern)
	if err != nil {
		return fmt.Errorf("failed to scan projects: %w", err)
	}
	for _, pkg := range pkgs {
		r.addProjectFrom(pkg)
	}

	if r.taskLibraries == nil {
		if err := r.loadTaskLibraries(ctx); err != nil {
			return err
		}
	}
	if r.deployments == nil {
		if err := r.loadDeployments(ctx); err != nil {
			return err
		}
	}
	if r.taskModels == nil {
		r.indexTaskModels()
	}
	if r.typeKits == nil {
		if err := r.loadTypeKits(ctx); err != nil {
			return err
		}
	}
	if r.types == nil {
		r.indexTypes(ctx)
	}
	return nil
}

// addProjectFrom registers the project a package belongs to. The first
// registration of a project wins.
func (r *Registry) addProjectFrom(pkg domain.PackageEntry) {
	if pkg.ProjectName == "" {
		r.logger.Warn("package does not have a project_name field", "package", pkg.Name)
		return
	}
	if _, ok := r.projects[pkg.ProjectName]; ok {
		return
	}
	if pkg.DefFile == "" {
		r.logger.Warn("package does not have a deffile field", "package", pkg.Name)
		return
	}
	r.projects[pkg.ProjectName] = domain.ProjectDescription{
		Name:         pkg.ProjectName,
		DefFile:      pkg.DefFile,
		TypeRegistry: pkg.TypeRegistry,
		Package:      pkg,
	}
}

func (r *Registry) loadTaskLibraries(ctx context.Context) error {
	pattern := r.taskLibraryPattern()
	pkgs, err := r.catalog.Packages(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to scan task libraries: %w", err)
	}

	libs := make(map[string]domain.TaskLibraryEntry, len(pkgs))
	r.libraryOrder = r.libraryOrder[:0]
	for _, pkg := range pkgs {
		name := pattern.ReplaceAllString(pkg.Name, "")
		if _, dup := libs[name]; !dup {
			r.libraryOrder = append(r.libraryOrder, name)
		}
		libs[name] = domain.TaskLibraryEntry{Name: name, Package: pkg}
		r.addProjectFrom(pkg)
	}
	r.taskLibraries = libs
	return nil
}

func (r *Registry) loadDeployments(ctx context.Context) error {
	pkgs, err := r.catalog.Packages(ctx, deploymentPattern)
	if err != nil {
		return fmt.Errorf("failed to scan deployments: %w", err)
	}

	deps := make(map[string]domain.DeploymentEntry, len(pkgs))
	for _, pkg := range pkgs {
		name := strings.TrimPrefix(pkg.Name, "orogen-")
		deps[name] = domain.DeploymentEntry{Name: name, Package: pkg}
		r.addProjectFrom(pkg)
	}
	r.deployments = deps
	return nil
}

// indexTaskModels maps every provided model to its library. When two
// libraries declare the same model, the last one scanned wins.
func (r *Registry) indexTaskModels() {
	index := make(map[string]string)
	for _, libName := range r.libraryOrder {
		entry := r.taskLibraries[libName]
		for _, model := range strings.Split(entry.Package.TaskModels, ",") {
			model = strings.TrimSpace(model)
			if model == "" {
				continue
			}
			if previous, ok := index[model]; ok && previous != libName {
				r.logger.Warn("task model declared by more than one library",
					"model", model, "library", libName, "previous", previous)
			}
			index[model] = libName
		}
	}
	r.taskModels = index
}

func (r *Registry) loadTypeKits(ctx context.Context) error {
	pattern := r.typeKitPattern()
	pkgs, err := r.catalog.Packages(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to scan typekits: %w", err)
	}

	kits := make(map[string]domain.TypeKitEntry, len(pkgs))
	r.typeKitOrder = r.typeKitOrder[:0]
	for _, pkg := range pkgs {
		name := pattern.ReplaceAllString(pkg.Name, "")
		if pkg.TypeRegistry == "" {
			r.logger.Warn("package does not have a type_registry field", "package", pkg.Name)
			continue
		}
		if _, dup := kits[name]; !dup {
			r.typeKitOrder = append(r.typeKitOrder, name)
		}
		kits[name] = domain.TypeKitEntry{
			Name:     name,
			Package:  pkg,
			TypeList: typelib.TypelistPath(pkg.TypeRegistry),
		}
	}
	r.typeKits = kits
	return nil
}

// indexTypes records, for every type named in a typelist, the type kit that
// declares it. Kits are applied in scan order and within a kit exported names
// override local ones, so the last kit seen wins.
func (r *Registry) indexTypes(ctx context.Context) {
	types := make(map[string]domain.TypeEntry)
	for _, kitName := range r.typeKitOrder {
		kit := r.typeKits[kitName]
		tl, err := r.loader.ReadTypelist(ctx, kit.TypeList)
		if err != nil {
			r.logger.Warn("cannot read typelist", "typekit", kitName, "path", kit.TypeList, "error", err)
			continue
		}
		for _, name := range tl.All {
			types[name] = domain.TypeEntry{Name: name, TypeKit: kitName, Exported: false}
		}
		for _, name := range tl.Exported {
			types[name] = domain.TypeEntry{Name: name, TypeKit: kitName, Exported: true}
		}
	}
	r.types = types
}

// ResolveTaskModel returns the parsed model called name, importing its task
// library on first use. It fails with a *domain.NotFoundError when no library
// provides the model and with a *domain.InternalInconsistencyError when the
// providing library does not actually define it.
func (r *Registry) ResolveTaskModel(ctx context.Context, name string) (*domain.TaskModel, error) {
	if r.taskModels == nil {
		if err := r.Load(ctx); err != nil {
			return nil, err
		}
	}

	libName, ok := r.taskModels[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task model", Name: name}
	}

	var path string
	if entry, ok := r.taskLibraries[libName]; ok {
		path = entry.Package.DefFile
	}
	lib, err := r.master.UsingTaskLibrary(ctx, libName, path)
	if err != nil {
		return nil, err
	}

	model, ok := lib.Task(name)
	if !ok {
		return nil, &domain.InternalInconsistencyError{Library: libName, Model: name}
	}

	r.loadExtensions(ctx, model)
	return model, nil
}

// loadExtensions triggers the callbacks of extensions not seen before.
// Failures are logged and never retried.
func (r *Registry) loadExtensions(ctx context.Context, model *domain.TaskModel) {
	for _, ext := range model.Extensions {
		if r.seenExtensions[ext] {
			continue
		}
		r.seenExtensions[ext] = true
		found, err := r.extensions.Load(ctx, ext)
		switch {
		case err != nil:
			r.logger.Debug("extension failed to load", "extension", ext, "model", model.Name, "error", err)
		case found:
			r.logger.Debug("extension loaded", "extension", ext, "model", model.Name)
		}
	}
}

// SeenExtension reports whether a resolved model has declared ext.
func (r *Registry) SeenExtension(ext string) bool { return r.seenExtensions[ext] }

// HasTypeKit reports whether a project called name is registered and exposes
// a type registry.
func (r *Registry) HasTypeKit(name string) bool {
	p, ok := r.projects[name]
	return ok && p.TypeRegistry != ""
}

// Deployment returns the parsed description of the deployment called name.
func (r *Registry) Deployment(ctx context.Context, name string) (*domain.Deployment, error) {
	entry, ok := r.deployments[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "deployment", Name: name}
	}
	return r.master.UsingDeployment(ctx, name, entry.Package.DefFile)
}

// LoadTypekit imports the types of the type kit called name into the type
// registry.
func (r *Registry) LoadTypekit(ctx context.Context, name string) error {
	kit, ok := r.typeKits[name]
	if !ok {
		return &domain.NotFoundError{Kind: "typekit", Name: name}
	}
	return r.master.ImportTypekit(ctx, name, kit.Package.TypeRegistry, kit.TypeList)
}

// ImportType makes the type called name available in the type registry,
// importing the type kit that declares it if needed. It fails with a
// *domain.NotFoundError when no discovered type kit declares the type.
func (r *Registry) ImportType(ctx context.Context, name string) error {
	if r.TypeRegistry().Has(name) {
		return nil
	}
	entry, ok := r.types[name]
	if !ok {
		return &domain.NotFoundError{Kind: "type", Name: name}
	}
	return r.LoadTypekit(ctx, entry.TypeKit)
}

// RegisterModels makes the models of an already parsed task library
// resolvable without an installed package, e.g. models loaded from a directory
// of definition documents. The registry is loaded first if needed.
func (r *Registry) RegisterModels(ctx context.Context, lib *domain.TaskLibrary) error {
	if !r.Loaded() || r.taskModels == nil {
		if err := r.Load(ctx); err != nil {
			return err
		}
	}
	if err := r.master.Register(lib); err != nil {
		return err
	}
	for _, name := range lib.Order {
		r.taskModels[name] = lib.Name
	}
	return nil
}

// Projects returns the registered projects, sorted by name.
func (r *Registry) Projects() []domain.ProjectDescription {
	out := make([]domain.ProjectDescription, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TaskLibraries returns the discovered task libraries, sorted by name.
func (r *Registry) TaskLibraries() []domain.TaskLibraryEntry {
	out := make([]domain.TaskLibraryEntry, 0, len(r.taskLibraries))
	for _, l := range r.taskLibraries {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Deployments returns the discovered deployments, sorted by name.
func (r *Registry) Deployments() []domain.DeploymentEntry {
	out := make([]domain.DeploymentEntry, 0, len(r.deployments))
	for _, d := range r.deployments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TypeKits returns the discovered type kits, sorted by name.
func (r *Registry) TypeKits() []domain.TypeKitEntry {
	out := make([]domain.TypeKitEntry, 0, len(r.typeKits))
	for _, k := range r.typeKits {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TaskModels returns a copy of the model → library index.
func (r *Registry) TaskModels() map[string]string {
	out := make(map[string]string, len(r.taskModels))
	for k, v := range r.taskModels {
		out[k] = v
	}
	return out
}

// TaskModelNames returns the indexed model names, sorted.
func (r *Registry) TaskModelNames() []string {
	names := make([]string, 0, len(r.taskModels))
	for name := range r.taskModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns a copy of the type → type kit catalog.
func (r *Registry) Types() map[string]domain.TypeEntry {
	out := make(map[string]domain.TypeEntry, len(r.types))
	for k, v := range r.types {
		out[k] = v
	}
	return out
}

// Type returns the catalog entry of a type.
func (r *Registry) Type(name string) (domain.TypeEntry, bool) {
	t, ok := r.types[name]
	return t, ok
}

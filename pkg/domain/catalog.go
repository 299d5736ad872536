package domain

// PackageEntry is one installable unit reported by the package catalog.
type PackageEntry struct {
	Name        string `json:"name"`
	ProjectName string `json:"project_name,omitempty"`
	DefFile     string `json:"deffile,omitempty"`
	// TaskModels is the raw comma-separated list of provided task model names.
	TaskModels string `json:"task_models,omitempty"`
	// TypeRegistry is the path of a type kit's registry file.
	TypeRegistry string `json:"type_registry,omitempty"`
	Version      string `json:"version,omitempty"`
	// Path is the file the entry was read from, if any.
	Path string `json:"path,omitempty"`
}

// ProjectDescription is a project registered during discovery.
type ProjectDescription struct {
	Name         string       `json:"name"`
	DefFile      string       `json:"deffile"`
	TypeRegistry string       `json:"type_registry,omitempty"`
	Package      PackageEntry `json:"package"`
}

// TaskLibraryEntry is a discovered task library package.
type TaskLibraryEntry struct {
	Name    string       `json:"name"`
	Package PackageEntry `json:"package"`
}

// DeploymentEntry is a discovered deployment package.
type DeploymentEntry struct {
	Name    string       `json:"name"`
	Package PackageEntry `json:"package"`
}

// TypeKitEntry is a discovered type kit package.
type TypeKitEntry struct {
	Name     string       `json:"name"`
	Package  PackageEntry `json:"package"`
	TypeList string       `json:"typelist"`
}

// TypeEntry records which type kit declared a type and whether the type is
// known to the remote type system.
type TypeEntry struct {
	Name     string `json:"name"`
	TypeKit  string `json:"typekit"`
	Exported bool   `json:"exported"`
}

package ports

import (
	"context"
	"regexp"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// PackageCatalog enumerates the installable units known on this host.
type PackageCatalog interface {
	// Packages returns every package whose name matches pattern, in a stable
	// order. Malformed entries are skipped by the implementation, never
	// reported as an error.
	Packages(ctx context.Context, pattern *regexp.Regexp) ([]domain.PackageEntry, error)
}

// DefinitionLoader parses the definition files referenced by catalog entries.
type DefinitionLoader interface {
	// LoadTaskLibrary parses the definition of the task library called name.
	LoadTaskLibrary(ctx context.Context, name, path string) (*domain.TaskLibrary, error)

	// LoadDeployment parses the description of the deployment called name.
	LoadDeployment(ctx context.Context, name, path string) (*domain.Deployment, error)

	// LoadTypes parses a type kit registry file.
	LoadTypes(ctx context.Context, path string) ([]typelib.Type, error)

	// ReadTypelist parses a type kit ".typelist" file.
	ReadTypelist(ctx context.Context, path string) (typelib.Typelist, error)
}

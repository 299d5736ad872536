/*
Package registry implements component discovery.

A Registry scans a package catalog for projects, task libraries, deployments
and type kits, indexes which library provides each task model and which type
kit declares each type, and resolves task model names into parsed models on
demand through its master project.

	reg := registry.New(catalog, loader, registry.WithTarget("gnulinux"))
	if err := reg.Load(ctx); err != nil {
		return err
	}
	model, err := reg.ResolveTaskModel(ctx, "nav::Controller")

A Registry is built once, early, and then read; it performs no locking.
*/
package registry

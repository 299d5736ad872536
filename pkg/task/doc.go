/*
Package task provides local proxies on remote component instances.

A TaskContext is obtained from a Directory, by name or by the capability the
task must implement, and is never constructed directly:

	dir := task.NewDirectory(naming, transport, task.WithTypes(reg.TypeRegistry()))
	nav, err := dir.Get(ctx, "controller")
	if err != nil {
		return err
	}
	if err := nav.Configure(ctx); err != nil {
		return err // *domain.StateTransitionError if refused
	}
	gain, err := nav.Attribute(ctx, "gain")
	...
	err = gain.Write(ctx, 3)

Every remote call goes through a single translation boundary that maps
transport failures onto the error taxonomy of package domain, tagged with the
task name. Proxies perform no locking and issue one blocking call at a time.
*/
package task

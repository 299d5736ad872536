/*
Package orocos is a client-side control plane for component-based robotics
deployments.

It discovers the component ("task") models installed on the host, through the
pkg-config metadata of their packages, and exposes running task instances as
typed proxies whose lifecycle, properties and ports can be driven remotely.

	client := orocos.New(orocos.WithLogger(logger))
	if err := client.Initialize(ctx); err != nil {
		return err
	}
	defer client.Close()

	nav, err := client.Task(ctx, "nav")
	if err != nil {
		return err
	}
	if err := nav.Configure(ctx); err != nil {
		return err
	}

Discovery lives in pkg/registry, the proxies in pkg/task. Collaborators that
are not part of this module, the naming directory and the remote-call
transport among them, are declared in pkg/ports and implemented by the
adapters under pkg/adapters.
*/
package orocos

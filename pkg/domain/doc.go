/*
Package domain contains the core models of the orocos control plane.

It defines the catalog entries produced by package discovery, the parsed task
model and deployment descriptions, the task lifecycle state machine and the
error taxonomy shared by every adapter. The package is kept free of I/O so that
registry, proxy and adapter code can all depend on it.

# Key Entities

  - PackageEntry: one installable unit as reported by the package catalog.
  - TaskModel: the static interface description of a component class.
  - TaskState / Transition: the remote component lifecycle.
  - NotFoundError, StateTransitionError, ...: typed errors that unwrap to sentinels.
*/
package domain

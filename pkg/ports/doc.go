/*
Package ports defines the driven ports (interfaces) of the orocos control plane.

These interfaces decouple discovery and the task proxies from the concrete
package catalog, definition file format, naming service and remote-call
transport, so each can be swapped (pkg-config, Redis, HTTP, in-memory).

# Key Interfaces

  - PackageCatalog: enumerates installed packages matching a name pattern.
  - DefinitionLoader: parses task library, deployment and type kit files.
  - NamingDirectory: maps task names to transport endpoints.
  - Transport / RemoteTask: the remote-call layer bound to one task instance.

Adapters report failures by wrapping the sentinels of package domain
(domain.ErrNotFound, domain.ErrCommunication, ...).
*/
package ports

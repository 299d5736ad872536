/*
Package typelib holds the type registry shared by every proxy of a process.

A Registry is the union of the types declared by loaded task libraries and type
kits. Each type is described by a Kind (numeric, string, enum, compound, sequence,
array or opaque) and, for the containers, the names of the types it refers to.
Types registered on the remote runtime's type system are marked as exported: only
those can be marshalled across the transport.

Convert normalizes a native Go value into the wire representation of a type
(bool, int64, uint64, float64, string, map[string]any, []any) and fails with an
error wrapping ErrMismatch when that is not possible.
*/
package typelib

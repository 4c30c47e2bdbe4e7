// Package schema provides the principal schematics for all other packages. It
// defines the contract of the native file system driver, the attribute and
// mode types passed across it, and implementations wrapping (Unix-based)
// operating system syscalls for drivers backed by the host.
package schema

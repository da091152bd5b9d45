package commands

import "go.trai.ch/zerr"

var (
	// ErrCorruptLockfile is returned when a lockfile holds a value that can
	// never be decoded, such as a malformed registry URL.
	ErrCorruptLockfile = zerr.New("corrupt lockfile")

	// ErrStaleLockfile is returned by check when MODULE.bazel changed since
	// the lockfile was written.
	ErrStaleLockfile = zerr.New("lockfile is out of date with MODULE.bazel")

	// ErrDanglingDependency is returned by check when a module depends on a
	// key that has no entry in moduleDepGraph.
	ErrDanglingDependency = zerr.New("dependency missing from moduleDepGraph")

	// ErrYankedVersion is returned by check --yanked when the graph selects
	// a version its registry yanked.
	ErrYankedVersion = zerr.New("lockfile selects a yanked version")

	// ErrNotFormatted is returned by fmt --check when the file would change.
	ErrNotFormatted = zerr.New("lockfile is not formatted")

	// ErrLockfilesDiffer is returned by diff --exit-code when the lockfiles differ.
	ErrLockfilesDiffer = zerr.New("lockfiles differ")

	// ErrUnknownOutput is returned for an unsupported --output value.
	ErrUnknownOutput = zerr.New("unknown output format")
)

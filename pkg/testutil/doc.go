// Package testutil provides test infrastructure for zreplica.
//
// Key components:
//   - MemZFS: an in-memory simulation of the zfs command line that implements
//     pipeline.Runner and records every invocation
//   - MockRunner: a testify mock of pipeline.Runner for exact argv assertions
//   - TestEnvironment: XDG isolation plus a MemZFS and an afero MemMapFs
//
// MemZFS answers listings in random order, so tests must not depend on the
// order zfs prints.
package testutil

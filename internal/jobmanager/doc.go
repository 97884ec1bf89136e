// Package jobmanager runs and manages Linux commands as isolated
// workers.
//
// A worker is one command execution: it runs in fresh PID, mount, and
// network namespaces under a per-worker cgroup, owned by the identity
// that started it. Output of a worker can be streamed concurrently to
// multiple clients, each from the first byte.
//
// The Manager creates and drives workers, identified by UUID; the
// Store holds them for the lifetime of the process.
package jobmanager

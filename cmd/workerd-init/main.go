//go:build linux

// Command workerd-init is the isolation helper spawned by the server
// for every worker. It expects to be the first process of fresh PID,
// mount, and network namespaces; it creates the per-worker cgroup and
// joins it, builds a minimal root filesystem, brings up loopback, and
// then replaces itself with the user command.
//
// Invocation: workerd-init [limit flags] -- <user argv...>
//
// Any failure before the final exec prints a one-line `setup: ...`
// error on stderr and exits with the sentinel status the server
// recognizes as an isolation failure.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/pflag"

	"workerd/internal/jobmanager"
	"workerd/internal/jobmanager/cgroups"
)

type initConfig struct {
	workerID   string
	cgroupRoot string
	limits     cgroups.Limits
	argv       []string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "setup: %s\n", err)
		os.Exit(jobmanager.IsolationExitCode)
	}
}

func run() error {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	// The server spawns us with the namespace clone flags already
	// requested, which makes us PID 1 of a new PID namespace. When
	// invoked without them (run by hand), unshare by re-executing
	// ourselves and forwarding the child's exit.
	if os.Getpid() != 1 {
		return reexecUnshared()
	}

	if err := setupIsolation(cfg); err != nil {
		return err
	}

	return execCommand(cfg.argv)
}

func parseFlags(args []string) (*initConfig, error) {
	cfg := &initConfig{}

	flags := pflag.NewFlagSet("workerd-init", pflag.ContinueOnError)

	flags.StringVar(&cfg.workerID, "worker-id", "", "Worker id the cgroup is derived from")
	flags.StringVar(&cfg.cgroupRoot, "cgroup-root", "/sys/fs/cgroup", "cgroup v2 hierarchy root")
	flags.Int64Var(&cfg.limits.CPUMaxPercent, "cpu-max-percent", 0, "CPU bandwidth as percent of one core")
	flags.Int64Var(&cfg.limits.MemoryMaxBytes, "memory-max-bytes", 0, "Memory hard cap in bytes")
	flags.Int64Var(&cfg.limits.IOMaxBytesPerSec, "io-max-bps", 0, "Block I/O cap in bytes per second")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg.argv = flags.Args()

	if cfg.workerID == "" {
		return nil, fmt.Errorf("worker-id is required")
	}

	if len(cfg.argv) == 0 {
		return nil, fmt.Errorf("command is required")
	}

	return cfg, nil
}

// reexecUnshared re-runs this binary with the namespace clone flags set
// and forwards the child's exit status, so a hand-launched helper ends
// up with the same layout as a server-spawned one.
func reexecUnshared() error {
	cmd := exec.Command("/proc/self/exe", os.Args[1:]...)

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = unsharedSysProcAttr()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}

		return fmt.Errorf("reexec: %w", err)
	}

	os.Exit(0)

	return nil
}

//go:build linux

package jobmanager

import (
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// IsolationExitCode is the sentinel status the isolation helper exits
// with when setup fails before the user command is exec'd. The reaper
// uses it to classify the worker as Failed rather than Exited.
const IsolationExitCode = 254

const (
	sigTerm = unix.SIGTERM
	sigKill = unix.SIGKILL
)

// helperPathEnv is a minimal PATH for the helper itself; the user
// command resolves against the rootfs the helper builds.
const helperPathEnv = "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// buildHelperCommand constructs the exec.Cmd that spawns the isolation
// helper for a worker: `workerd-init <limit flags> -- <user argv...>`.
// The clone flags request fresh PID, mount, and network namespaces
// before any helper (or user) code runs, so the helper starts as PID 1
// of the new PID namespace. Stdout and stderr feed the worker's output
// logs; stdin is the null device.
func (m *Manager) buildHelperCommand(job *Job) *exec.Cmd {
	args := []string{
		"--worker-id", job.ID(),
		"--cgroup-root", m.cfg.CgroupRoot,
		"--cpu-max-percent", strconv.FormatInt(m.cfg.Limits.CPUMaxPercent, 10),
		"--memory-max-bytes", strconv.FormatInt(m.cfg.Limits.MemoryMaxBytes, 10),
		"--io-max-bps", strconv.FormatInt(m.cfg.Limits.IOMaxBytesPerSec, 10),
		"--",
	}
	args = append(args, job.Command()...)

	cmd := exec.Command(m.cfg.HelperPath, args...)

	cmd.Stdout = job.stdoutSink()
	cmd.Stderr = job.stderrSink()
	cmd.Env = []string{helperPathEnv}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		// Own process group, so signalling the worker never reaches the
		// server.
		Setpgid: true,

		// The worker must not outlive the server.
		Pdeathsig: syscall.SIGKILL,

		Cloneflags: syscall.CLONE_NEWPID |
			syscall.CLONE_NEWNS |
			syscall.CLONE_NEWNET,
	}

	return cmd
}

// signalGroup delivers sig to the helper's process group. ESRCH means
// the group is already gone, which callers treat as success.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := unix.Kill(-pid, sig); err != nil && err != unix.ESRCH {
		return err
	}

	return nil
}

// exitStatus extracts the helper's exit code from a waited Cmd. A
// signal-terminated worker reports the conventional 128+signal code.
// ok is false when the process never ran.
func exitStatus(cmd *exec.Cmd) (code int, signaled bool, ok bool) {
	ps := cmd.ProcessState
	if ps == nil {
		return 0, false, false
	}

	if ws, isWait := ps.Sys().(syscall.WaitStatus); isWait && ws.Signaled() {
		return 128 + int(ws.Signal()), true, true
	}

	return ps.ExitCode(), false, true
}

package jobmanager

import (
	"io"
	"testing"
)

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("Test initial state", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-1", "alice", []string{"echo", "hello"})
		job.state.Store(StateStarting)

		status := job.Status()

		if status.State != StateStarting {
			t.Errorf("expected state: got '%s', want '%s'", status.State, StateStarting)
		}

		if status.Done {
			t.Error("expected job not to be done")
		}

		if status.Exited {
			t.Error("expected job not to have exited")
		}

		if status.PID != 0 {
			t.Errorf("expected no pid: got '%d'", status.PID)
		}

		if job.Owner() != "alice" {
			t.Errorf("expected owner: got '%s', want 'alice'", job.Owner())
		}
	})

	t.Run("Test pid recorded only while starting", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-2", "alice", []string{"sleep", "30"})
		job.state.Store(StateStarting)

		if err := job.setPID(1234); err != nil {
			t.Errorf("expected set pid not to return error: got '%v'", err)
		}

		if got := job.PID(); got != 1234 {
			t.Errorf("expected pid: got '%d', want '1234'", got)
		}

		job.markRunning()
		job.markExited(0)

		if err := job.setPID(5678); err == nil {
			t.Error("expected set pid on terminal job to return error")
		}
	})

	t.Run("Test exited terminal state", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-3", "alice", []string{"sh", "-c", "exit 42"})
		job.state.Store(StateStarting)
		job.markRunning()

		job.markExited(42)

		status := job.Status()

		if status.State != StateExited {
			t.Errorf("expected state: got '%s', want '%s'", status.State, StateExited)
		}

		if !status.Done {
			t.Error("expected job to be done")
		}

		if !status.Exited || status.ExitCode != 42 {
			t.Errorf(
				"expected exit code: got exited '%t' code '%d', want exited 'true' code '42'",
				status.Exited,
				status.ExitCode,
			)
		}

		select {
		case <-job.Done():
		default:
			t.Error("expected done channel to be closed")
		}
	})

	t.Run("Test failed terminal state", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-4", "alice", []string{"sh"})
		job.state.Store(StateStarting)

		job.markFailed("create cgroup: permission denied")

		status := job.Status()

		if status.State != StateFailed {
			t.Errorf("expected state: got '%s', want '%s'", status.State, StateFailed)
		}

		if status.Exited {
			t.Error("expected job not to have exited")
		}

		if status.FailureReason != "create cgroup: permission denied" {
			t.Errorf("expected failure reason: got '%s'", status.FailureReason)
		}
	})

	t.Run("Test terminal transition is idempotent", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-5", "alice", []string{"true"})
		job.state.Store(StateStarting)
		job.markRunning()

		job.markExited(0)
		job.markExited(1)
		job.markFailed("late failure")

		status := job.Status()

		if status.State != StateExited {
			t.Errorf("expected state: got '%s', want '%s'", status.State, StateExited)
		}

		if status.ExitCode != 0 {
			t.Errorf("expected exit code: got '%d', want '0'", status.ExitCode)
		}

		if status.FailureReason != "" {
			t.Errorf("expected no failure reason: got '%s'", status.FailureReason)
		}
	})

	t.Run("Test logs closed at terminal state", func(t *testing.T) {
		t.Parallel()

		job := newJob("id-6", "alice", []string{"echo"})
		job.state.Store(StateStarting)
		job.markRunning()

		job.stdoutSink().Write([]byte("hello\n"))

		job.markExited(0)

		stdout, err := io.ReadAll(job.StdoutReader())
		if err != nil {
			t.Errorf("expected read all not to return error: got '%v'", err)
		}

		if string(stdout) != "hello\n" {
			t.Errorf("expected stdout: got '%s', want 'hello\\n'", stdout)
		}

		stderr, err := io.ReadAll(job.StderrReader())
		if err != nil {
			t.Errorf("expected read all not to return error: got '%v'", err)
		}

		if len(stderr) != 0 {
			t.Errorf("expected empty stderr: got '%s'", stderr)
		}

		if _, err := job.stdoutSink().Write([]byte("late")); err != io.ErrClosedPipe {
			t.Errorf("expected write after terminal to fail: got '%v'", err)
		}
	})
}

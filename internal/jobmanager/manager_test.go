package jobmanager

import (
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"workerd/internal/jobmanager/cgroups"
)

// newTestManager builds a Manager without validating the cgroup root,
// so ownership and argument handling can be tested without privileges.
// Nothing here spawns the helper.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	return &Manager{
		store: NewStore(),
		cfg: Config{
			HelperPath: "/usr/local/bin/workerd-init",
			CgroupRoot: "/sys/fs/cgroup",
			Limits:     cgroups.DefaultLimits(),
			StopGrace:  defaultStopGrace,
		},
		logger: zap.NewNop(),
	}
}

func TestManagerValidation(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	t.Run("Test start with empty command", func(t *testing.T) {
		t.Parallel()

		if _, err := m.Start("alice", nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument: got '%v'", err)
		}

		if _, err := m.Start("alice", []string{""}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument: got '%v'", err)
		}
	})

	t.Run("Test start with empty owner", func(t *testing.T) {
		t.Parallel()

		if _, err := m.Start("", []string{"true"}); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied: got '%v'", err)
		}
	})

	t.Run("Test operations on unknown worker", func(t *testing.T) {
		t.Parallel()

		if _, err := m.Status("alice", "no-such-id"); !errors.Is(err, ErrWorkerNotFound) {
			t.Errorf("expected ErrWorkerNotFound: got '%v'", err)
		}

		if err := m.Stop("alice", "no-such-id"); !errors.Is(err, ErrWorkerNotFound) {
			t.Errorf("expected ErrWorkerNotFound: got '%v'", err)
		}

		if _, _, err := m.OutputReaders("alice", "no-such-id"); !errors.Is(err, ErrWorkerNotFound) {
			t.Errorf("expected ErrWorkerNotFound: got '%v'", err)
		}

		if _, err := m.Status("alice", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument: got '%v'", err)
		}
	})
}

func TestManagerOwnership(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	job := m.store.Create("alice", []string{"sleep", "300"})
	job.setPID(424242)
	job.markRunning()

	operations := map[string]func(requester string) error{
		"Stop": func(requester string) error {
			return m.Stop(requester, job.ID())
		},
		"Status": func(requester string) error {
			_, err := m.Status(requester, job.ID())
			return err
		},
		"OutputReaders": func(requester string) error {
			_, _, err := m.OutputReaders(requester, job.ID())
			return err
		},
		"Remove": func(requester string) error {
			return m.Remove(requester, job.ID())
		},
	}

	for name, op := range operations {
		t.Run("Test "+name+" by non-owner", func(t *testing.T) {
			if err := op("bob"); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("expected ErrPermissionDenied: got '%v'", err)
			}
		})
	}

	t.Run("Test Status by owner", func(t *testing.T) {
		status, err := m.Status("alice", job.ID())
		if err != nil {
			t.Fatalf("expected status not to return error: got '%v'", err)
		}

		if status.State != StateRunning {
			t.Errorf("expected state: got '%s', want '%s'", status.State, StateRunning)
		}

		if status.PID != 424242 {
			t.Errorf("expected pid: got '%d', want '424242'", status.PID)
		}
	})
}

func TestManagerStopTerminalIsNoop(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	job := m.store.Create("alice", []string{"true"})
	job.setPID(424242)
	job.markRunning()
	job.markExited(0)

	if err := m.Stop("alice", job.ID()); err != nil {
		t.Errorf("expected stop of terminal worker to be a no-op: got '%v'", err)
	}

	if err := m.Stop("alice", job.ID()); err != nil {
		t.Errorf("expected second stop to be a no-op: got '%v'", err)
	}
}

func TestManagerOutputReaders(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	job := m.store.Create("alice", []string{"echo"})
	job.setPID(424242)
	job.markRunning()

	job.stdoutSink().Write([]byte("out\n"))
	job.stderrSink().Write([]byte("err\n"))

	job.markExited(0)

	stdout, stderr, err := m.OutputReaders("alice", job.ID())
	if err != nil {
		t.Fatalf("expected output readers not to return error: got '%v'", err)
	}
	defer stdout.Close()
	defer stderr.Close()

	gotOut, err := io.ReadAll(stdout)
	if err != nil {
		t.Errorf("expected read all not to return error: got '%v'", err)
	}

	if string(gotOut) != "out\n" {
		t.Errorf("expected stdout: got '%s', want 'out\\n'", gotOut)
	}

	gotErr, err := io.ReadAll(stderr)
	if err != nil {
		t.Errorf("expected read all not to return error: got '%v'", err)
	}

	if string(gotErr) != "err\n" {
		t.Errorf("expected stderr: got '%s', want 'err\\n'", gotErr)
	}
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	scenarios := map[string]struct {
		input string
		want  string
	}{
		"Empty":               {input: "", want: ""},
		"Single line":         {input: "setup: mount proc: no such device\n", want: "setup: mount proc: no such device"},
		"Multiple lines":      {input: "warning\nsetup: pivot_root: busy\n", want: "setup: pivot_root: busy"},
		"Trailing blank":      {input: "reason\n\n\n", want: "reason"},
		"No trailing newline": {input: "reason", want: "reason"},
	}

	for scenario, config := range scenarios {
		scenario, config := scenario, config
		t.Run("Test "+scenario, func(t *testing.T) {
			t.Parallel()

			if got := lastLine([]byte(config.input)); got != config.want {
				t.Errorf("expected last line: got '%s', want '%s'", got, config.want)
			}
		})
	}
}

func TestManagerEscalateAfterDone(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.cfg.StopGrace = 10 * time.Millisecond

	job := m.store.Create("alice", []string{"true"})
	job.setPID(424242)
	job.markRunning()
	job.markExited(0)

	// The worker is already done; escalate must return without
	// signalling anything.
	finished := make(chan struct{})

	go func() {
		m.escalate(job, 424242)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Error("expected escalate to return for a done worker")
	}
}

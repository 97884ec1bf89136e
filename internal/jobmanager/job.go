package jobmanager

import (
	"io"
	"sync"
	"time"

	"workerd/internal/jobmanager/output"
)

// Job is one worker: a single command execution and its lifecycle. The
// immutable identity fields (id, owner, command, created) are set at
// creation and never change; mutable fields are guarded by mu except
// state, which is atomic so hot paths can read it without the lock.
type Job struct {
	id      string
	owner   string
	command []string
	created time.Time

	state AtomicState

	mu            sync.Mutex
	pid           int
	exitCode      int
	exited        bool
	failureReason string
	cgroupPath    string

	stdout *output.Log
	stderr *output.Log

	done chan struct{}
}

// Status is a point-in-time snapshot of a Job.
type Status struct {
	State         State
	Done          bool
	Exited        bool
	ExitCode      int
	PID           int
	FailureReason string
}

func newJob(id, owner string, command []string) *Job {
	return &Job{
		id:      id,
		owner:   owner,
		command: command,
		created: time.Now(),
		stdout:  output.NewLog(),
		stderr:  output.NewLog(),
		done:    make(chan struct{}),
	}
}

// ID returns the worker id.
func (j *Job) ID() string {
	return j.id
}

// Owner returns the identity that created the worker. It never changes
// after creation.
func (j *Job) Owner() string {
	return j.owner
}

// Command returns the argv of the user command.
func (j *Job) Command() []string {
	return j.command
}

// CreatedAt returns the creation timestamp.
func (j *Job) CreatedAt() time.Time {
	return j.created
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	return j.state.Load()
}

// PID returns the host pid of the isolation helper, or 0 if it has not
// been spawned.
func (j *Job) PID() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.pid
}

// Done returns a channel that is closed when the worker reaches a
// terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns a consistent snapshot of the worker.
func (j *Job) Status() *Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	state := j.state.Load()

	return &Status{
		State:         state,
		Done:          state.Terminal(),
		Exited:        j.exited,
		ExitCode:      j.exitCode,
		PID:           j.pid,
		FailureReason: j.failureReason,
	}
}

// StdoutReader returns a new reader over the stdout log, positioned at
// offset zero.
func (j *Job) StdoutReader() io.ReadCloser {
	return j.stdout.NewReader()
}

// StderrReader returns a new reader over the stderr log, positioned at
// offset zero.
func (j *Job) StderrReader() io.ReadCloser {
	return j.stderr.NewReader()
}

// ActiveReaders returns the number of attached output readers across
// both streams.
func (j *Job) ActiveReaders() int {
	return j.stdout.Readers() + j.stderr.Readers()
}

// stdoutSink and stderrSink are the writer ends consumed by the helper
// process wiring. Appends fail once the log is closed, which only
// happens on the terminal transition.
func (j *Job) stdoutSink() io.Writer { return j.stdout }
func (j *Job) stderrSink() io.Writer { return j.stderr }

// setPID records the helper's host pid. Permitted only while the worker
// is still starting.
func (j *Job) setPID(pid int) error {
	if j.state.Load() != StateStarting {
		return NewInvalidStateError(j.state.Load(), StateStarting)
	}

	j.mu.Lock()
	j.pid = pid
	j.mu.Unlock()

	return nil
}

// markRunning transitions Starting -> Running.
func (j *Job) markRunning() error {
	if !j.state.CompareAndSwap(StateStarting, StateRunning) {
		return NewInvalidStateError(j.state.Load(), StateRunning)
	}

	return nil
}

// markExited records the command's exit code and finalizes the worker.
// A second terminal transition is a no-op.
func (j *Job) markExited(code int) {
	j.finalize(StateExited, func() {
		j.exited = true
		j.exitCode = code
	})
}

// markFailed records a pre-exec failure reason and finalizes the
// worker. A second terminal transition is a no-op.
func (j *Job) markFailed(reason string) {
	j.finalize(StateFailed, func() {
		j.failureReason = reason
	})
}

func (j *Job) finalize(terminal State, record func()) {
	swapped := j.state.CompareAndSwap(StateRunning, terminal) ||
		j.state.CompareAndSwap(StateStarting, terminal)
	if !swapped {
		return
	}

	j.mu.Lock()
	record()
	j.mu.Unlock()

	j.stdout.Close()
	j.stderr.Close()

	close(j.done)
}

// setCgroupPath records the per-worker cgroup directory for teardown.
func (j *Job) setCgroupPath(path string) {
	j.mu.Lock()
	j.cgroupPath = path
	j.mu.Unlock()
}

// CgroupPath returns the per-worker cgroup directory, or "" if none was
// created.
func (j *Job) CgroupPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.cgroupPath
}

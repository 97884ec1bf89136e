package jobmanager

import (
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"workerd/internal/jobmanager/cgroups"
	"workerd/internal/observability"
)

const defaultStopGrace = 5 * time.Second

// Config carries the manager's execution settings.
type Config struct {
	// HelperPath is the isolation helper binary spawned for every
	// worker.
	HelperPath string

	// CgroupRoot is the cgroup v2 hierarchy root, normally
	// /sys/fs/cgroup.
	CgroupRoot string

	// Limits are applied to every worker.
	Limits cgroups.Limits

	// StopGrace is how long Stop waits between SIGTERM and SIGKILL.
	StopGrace time.Duration
}

// Manager creates and drives workers: it spawns the isolation helper,
// wires its output into the per-worker logs, reaps exit, and enforces
// ownership on every operation.
type Manager struct {
	store   *Store
	cfg     Config
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewManager creates a Manager ready to run workers. The cgroup root is
// validated up front so a misconfigured hierarchy fails at startup, not
// on the first Start.
func NewManager(cfg Config, logger *zap.Logger, metrics *observability.Metrics) (*Manager, error) {
	if err := cgroups.ValidateRoot(cfg.CgroupRoot); err != nil {
		return nil, err
	}

	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}

	return &Manager{
		store:   NewStore(),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start launches command as a new worker owned by owner and returns the
// worker id. The helper is spawned with fresh PID, mount, and network
// namespaces requested before any user code runs.
func (m *Manager) Start(owner string, command []string) (string, error) {
	if owner == "" {
		return "", ErrPermissionDenied
	}

	if len(command) == 0 || command[0] == "" {
		return "", ErrInvalidArgument
	}

	job := m.store.Create(owner, command)
	job.setCgroupPath(cgroups.PathFor(m.cfg.CgroupRoot, job.ID()))

	cmd := m.buildHelperCommand(job)

	if err := cmd.Start(); err != nil {
		reason := err.Error()
		job.markFailed(reason)
		m.metrics.WorkerSpawnFailed()

		m.logger.Error("spawn helper",
			zap.String("worker_id", job.ID()),
			zap.Error(err),
		)

		return "", SpawnError{Reason: reason}
	}

	// Both of these only race a terminal transition if the helper dies
	// before we get here; in that case the job is already Failed/Exited
	// and the records are no-ops.
	job.setPID(cmd.Process.Pid)
	job.markRunning()

	m.metrics.WorkerStarted()

	m.logger.Info("worker started",
		zap.String("worker_id", job.ID()),
		zap.String("owner", owner),
		zap.Int("pid", cmd.Process.Pid),
	)

	go m.reap(job, cmd)

	return job.ID(), nil
}

// Stop terminates a running worker owned by requester. It returns once
// the termination signal has been delivered; reaping happens
// asynchronously. Stopping an already-terminal worker is a no-op.
func (m *Manager) Stop(requester, id string) error {
	job, err := m.authorized(requester, id)
	if err != nil {
		return err
	}

	if job.State().Terminal() {
		return nil
	}

	pid := job.PID()
	if pid == 0 {
		return NewInvalidStateError(job.State(), StateExited)
	}

	if err := signalGroup(pid, sigTerm); err != nil {
		return err
	}

	m.logger.Info("worker stop requested",
		zap.String("worker_id", id),
		zap.Int("pid", pid),
	)

	go m.escalate(job, pid)

	return nil
}

// escalate SIGKILLs the worker if it outlives the stop grace period.
// The cgroup kill switch catches anything that escaped the process
// group.
func (m *Manager) escalate(job *Job, pid int) {
	timer := time.NewTimer(m.cfg.StopGrace)
	defer timer.Stop()

	select {
	case <-job.Done():
		return
	case <-timer.C:
	}

	if err := signalGroup(pid, sigKill); err != nil {
		m.logger.Warn("sigkill worker",
			zap.String("worker_id", job.ID()),
			zap.Error(err),
		)
	}

	if err := cgroups.Kill(job.CgroupPath()); err != nil {
		m.logger.Warn("kill worker cgroup",
			zap.String("worker_id", job.ID()),
			zap.Error(err),
		)
	}
}

// Status returns a snapshot of the worker owned by requester.
func (m *Manager) Status(requester, id string) (*Status, error) {
	job, err := m.authorized(requester, id)
	if err != nil {
		return nil, err
	}

	return job.Status(), nil
}

// OutputReaders returns fresh stdout and stderr readers for the worker
// owned by requester, each positioned at offset zero.
func (m *Manager) OutputReaders(requester, id string) (stdout, stderr io.ReadCloser, err error) {
	job, err := m.authorized(requester, id)
	if err != nil {
		return nil, nil, err
	}

	return job.StdoutReader(), job.StderrReader(), nil
}

// Remove reclaims a terminal worker with no attached readers and frees
// its cgroup handle. Not exposed on the wire; intended for an admin
// sweep.
func (m *Manager) Remove(requester, id string) error {
	job, err := m.authorized(requester, id)
	if err != nil {
		return err
	}

	if err := m.store.Remove(id); err != nil {
		return err
	}

	if path := job.CgroupPath(); path != "" {
		if err := cgroups.Remove(path); err != nil {
			m.logger.Warn("remove cgroup",
				zap.String("worker_id", id),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Shutdown makes a best-effort attempt to kill every live worker and
// waits for their reapers to finish.
func (m *Manager) Shutdown() {
	var wg sync.WaitGroup

	for _, job := range m.store.List() {
		if job.State().Terminal() {
			continue
		}

		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()

			if err := cgroups.Kill(job.CgroupPath()); err != nil {
				m.logger.Warn("kill worker cgroup",
					zap.String("worker_id", job.ID()),
					zap.Error(err),
				)
			}

			if pid := job.PID(); pid > 0 {
				signalGroup(pid, sigKill)
			}

			<-job.Done()
		}(job)
	}

	wg.Wait()
}

// reap blocks on helper exit, classifies the result, and finalizes the
// worker.
func (m *Manager) reap(job *Job, cmd *exec.Cmd) {
	waitErr := cmd.Wait()

	code, signaled, ok := exitStatus(cmd)
	switch {
	case !ok:
		reason := "helper did not run"
		if waitErr != nil {
			reason = waitErr.Error()
		}

		job.markFailed(reason)
		m.metrics.WorkerFailed()

	case code == IsolationExitCode:
		// The helper emits a one-line setup error on stderr before
		// exiting with the sentinel code.
		reason := lastLine(job.stderr.Bytes())
		if reason == "" {
			reason = "isolation setup failed"
		}

		job.markFailed(reason)
		m.metrics.WorkerFailed()

		m.logger.Warn("worker isolation failed",
			zap.String("worker_id", job.ID()),
			zap.String("reason", reason),
		)

	default:
		job.markExited(code)
		m.metrics.WorkerExited()

		m.logger.Info("worker exited",
			zap.String("worker_id", job.ID()),
			zap.Int("exit_code", code),
			zap.Bool("signaled", signaled),
		)
	}

	if path := job.CgroupPath(); path != "" {
		if err := cgroups.Remove(path); err != nil {
			m.logger.Warn("remove cgroup",
				zap.String("worker_id", job.ID()),
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}

// authorized looks up a worker and verifies the requester owns it.
// ErrPermissionDenied and ErrWorkerNotFound stay distinct here; the
// transport collapses them before they reach clients.
func (m *Manager) authorized(requester, id string) (*Job, error) {
	if id == "" {
		return nil, ErrInvalidArgument
	}

	job, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	if requester == "" || job.Owner() != requester {
		return nil, ErrPermissionDenied
	}

	return job, nil
}

func lastLine(b []byte) string {
	var last string

	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			last = line
		}
	}

	return last
}

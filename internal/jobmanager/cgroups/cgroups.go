// Package cgroups manages the per-worker cgroup v2 directory that caps
// CPU, memory, and block I/O for a worker and everything it spawns.
//
// The isolation helper creates the cgroup and joins it before exec'ing
// the user command; the manager tears it down after the worker exits.
package cgroups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const (
	cpuPeriodMicros = 100000
	procMountinfo   = "/proc/self/mountinfo"

	// dirPrefix namespaces worker cgroups under the root so a sweep can
	// identify ours.
	dirPrefix = "workerd-"

	removeRetries  = 10
	removeInterval = 100 * time.Millisecond
)

// Limits are the per-worker resource caps.
type Limits struct {
	// CPUMaxPercent is CPU bandwidth as a percentage of one core;
	// 100 caps the worker at one core's worth of time.
	CPUMaxPercent int64

	// MemoryMaxBytes is the hard memory cap; the kernel OOM-kills the
	// worker beyond it.
	MemoryMaxBytes int64

	// IOMaxBytesPerSec caps read and write throughput on the root block
	// device.
	IOMaxBytesPerSec int64
}

// DefaultLimits returns the service defaults: one core, 100 MiB,
// 1 MiB/s.
func DefaultLimits() Limits {
	return Limits{
		CPUMaxPercent:    100,
		MemoryMaxBytes:   100 * 1024 * 1024,
		IOMaxBytesPerSec: 1024 * 1024,
	}
}

// PathFor returns the cgroup directory for a worker id under root.
func PathFor(root, workerID string) string {
	return filepath.Join(root, dirPrefix+workerID)
}

// Create makes the worker's cgroup directory and applies limits.
// Zero-valued limits are skipped.
func Create(root, workerID string, limits Limits) (string, error) {
	path := PathFor(root, workerID)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("make cgroup dir: %w", err)
	}

	if err := applyLimits(path, limits); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("apply cgroup limits: %w", err)
	}

	return path, nil
}

func applyLimits(path string, limits Limits) error {
	if limits.CPUMaxPercent > 0 {
		quota := (limits.CPUMaxPercent * cpuPeriodMicros) / 100
		value := fmt.Sprintf("%d %d", quota, cpuPeriodMicros)

		if err := os.WriteFile(filepath.Join(path, "cpu.max"), []byte(value), 0o644); err != nil {
			return fmt.Errorf("write cpu.max: %w", err)
		}
	}

	if limits.MemoryMaxBytes > 0 {
		value := strconv.FormatInt(limits.MemoryMaxBytes, 10)

		if err := os.WriteFile(filepath.Join(path, "memory.max"), []byte(value), 0o644); err != nil {
			return fmt.Errorf("write memory.max: %w", err)
		}
	}

	if limits.IOMaxBytesPerSec > 0 {
		if err := setIOLimit(path, limits.IOMaxBytesPerSec); err != nil {
			return fmt.Errorf("set io.max: %w", err)
		}
	}

	return nil
}

func setIOLimit(path string, bps int64) error {
	device, err := detectRootDevice()
	if err != nil {
		return fmt.Errorf("detect root device: %w", err)
	}

	value := fmt.Sprintf("%s rbps=%d wbps=%d", device, bps, bps)

	if err := os.WriteFile(filepath.Join(path, "io.max"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write io.max: %w", err)
	}

	return nil
}

// JoinSelf moves the calling process into the cgroup. Children inherit
// membership, so the exec'd user command stays capped.
func JoinSelf(path string) error {
	return Join(path, os.Getpid())
}

// Join moves pid into the cgroup.
func Join(path string, pid int) error {
	procsPath := filepath.Join(path, "cgroup.procs")

	if err := os.WriteFile(procsPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("add process to cgroup: %w", err)
	}

	return nil
}

// Kill writes cgroup.kill, SIGKILLing every process in the cgroup.
func Kill(path string) error {
	killPath := filepath.Join(path, "cgroup.kill")

	if err := os.WriteFile(killPath, []byte("1"), 0o644); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("write cgroup.kill: %w", err)
	}

	return nil
}

// Remove deletes the cgroup directory, retrying briefly on EBUSY while
// the kernel reaps exiting members. If the directory stays busy it is
// killed and removal retried once more.
func Remove(path string) error {
	var err error

	for i := 0; i < removeRetries; i++ {
		err = os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}

		if !errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("remove cgroup: %w", err)
		}

		time.Sleep(removeInterval)
	}

	// Still populated; kill stragglers and try once more.
	if killErr := Kill(path); killErr != nil {
		return fmt.Errorf("kill busy cgroup: %w", killErr)
	}

	time.Sleep(removeInterval)

	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cgroup: %w", err)
	}

	return nil
}

// ValidateRoot checks that root is a usable cgroup v2 hierarchy.
func ValidateRoot(root string) error {
	controllersPath := filepath.Join(root, "cgroup.controllers")
	if _, err := os.Stat(controllersPath); err != nil {
		return fmt.Errorf("cgroup root not valid at %s: %w", root, err)
	}

	return nil
}

func detectRootDevice() (string, error) {
	mountinfo, err := os.ReadFile(procMountinfo)
	if err != nil {
		return "", fmt.Errorf("read mountinfo: %w", err)
	}

	for _, line := range strings.Split(string(mountinfo), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		if fields[4] == "/" {
			return fields[2], nil
		}
	}

	return "", fmt.Errorf("detect root device in %s", procMountinfo)
}

package cgroups_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"workerd/internal/jobmanager/cgroups"
)

func TestCgroups(t *testing.T) {
	t.Parallel()

	t.Run("Test path derivation", func(t *testing.T) {
		t.Parallel()

		got := cgroups.PathFor("/sys/fs/cgroup", "abc-123")
		want := "/sys/fs/cgroup/workerd-abc-123"

		if got != want {
			t.Errorf("expected cgroup path: got '%s', want '%s'", got, want)
		}
	})

	t.Run("Test default limits", func(t *testing.T) {
		t.Parallel()

		limits := cgroups.DefaultLimits()

		if limits.CPUMaxPercent != 100 {
			t.Errorf("expected cpu max percent: got '%d', want '100'", limits.CPUMaxPercent)
		}

		if limits.MemoryMaxBytes != 100*1024*1024 {
			t.Errorf("expected memory max: got '%d', want '%d'", limits.MemoryMaxBytes, 100*1024*1024)
		}

		if limits.IOMaxBytesPerSec != 1024*1024 {
			t.Errorf("expected io max: got '%d', want '%d'", limits.IOMaxBytesPerSec, 1024*1024)
		}
	})

	t.Run("Test create writes limits", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		limits := cgroups.Limits{
			CPUMaxPercent:  50,
			MemoryMaxBytes: 536870912,
		}

		path, err := cgroups.Create(root, "limits-test", limits)
		if err != nil {
			t.Fatalf("expected create not to return error: got '%v'", err)
		}

		if path != filepath.Join(root, "workerd-limits-test") {
			t.Errorf("expected cgroup path: got '%s'", path)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected cgroup dir to exist: got '%v'", err)
		}

		cpuMax, err := os.ReadFile(filepath.Join(path, "cpu.max"))
		if err != nil {
			t.Fatalf("expected cpu.max to be written: got '%v'", err)
		}

		gotCPU := string(bytes.TrimSpace(cpuMax))
		wantCPU := "50000 100000"
		if gotCPU != wantCPU {
			t.Errorf("expected cpu.max: got '%s', want '%s'", gotCPU, wantCPU)
		}

		memoryMax, err := os.ReadFile(filepath.Join(path, "memory.max"))
		if err != nil {
			t.Fatalf("expected memory.max to be written: got '%v'", err)
		}

		gotMemory := string(bytes.TrimSpace(memoryMax))
		wantMemory := "536870912"
		if gotMemory != wantMemory {
			t.Errorf("expected memory.max: got '%s', want '%s'", gotMemory, wantMemory)
		}
	})

	t.Run("Test zero limits are skipped", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		path, err := cgroups.Create(root, "no-limits-test", cgroups.Limits{})
		if err != nil {
			t.Fatalf("expected create not to return error: got '%v'", err)
		}

		if _, err := os.Stat(filepath.Join(path, "cpu.max")); !os.IsNotExist(err) {
			t.Errorf("expected cpu.max not to be written: got '%v'", err)
		}

		if _, err := os.Stat(filepath.Join(path, "memory.max")); !os.IsNotExist(err) {
			t.Errorf("expected memory.max not to be written: got '%v'", err)
		}
	})

	t.Run("Test join writes pid", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		path, err := cgroups.Create(root, "join-test", cgroups.Limits{})
		if err != nil {
			t.Fatalf("expected create not to return error: got '%v'", err)
		}

		if err := cgroups.Join(path, 1234); err != nil {
			t.Fatalf("expected join not to return error: got '%v'", err)
		}

		procs, err := os.ReadFile(filepath.Join(path, "cgroup.procs"))
		if err != nil {
			t.Fatalf("expected cgroup.procs to be written: got '%v'", err)
		}

		if got := string(bytes.TrimSpace(procs)); got != strconv.Itoa(1234) {
			t.Errorf("expected cgroup.procs: got '%s', want '1234'", got)
		}
	})

	t.Run("Test remove", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		path, err := cgroups.Create(root, "remove-test", cgroups.Limits{})
		if err != nil {
			t.Fatalf("expected create not to return error: got '%v'", err)
		}

		if err := cgroups.Remove(path); err != nil {
			t.Errorf("expected remove not to return error: got '%v'", err)
		}

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected cgroup dir to be removed: got '%v'", err)
		}

		// Removing an already-removed cgroup is fine.
		if err := cgroups.Remove(path); err != nil {
			t.Errorf("expected second remove not to return error: got '%v'", err)
		}
	})

	t.Run("Test validate root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		if err := cgroups.ValidateRoot(root); err == nil {
			t.Error("expected validate of plain dir to return error")
		}

		if err := os.WriteFile(
			filepath.Join(root, "cgroup.controllers"),
			[]byte("cpu io memory\n"),
			0o644,
		); err != nil {
			t.Fatalf("failed to write controllers file: %v", err)
		}

		if err := cgroups.ValidateRoot(root); err != nil {
			t.Errorf("expected validate not to return error: got '%v'", err)
		}
	})
}

//go:build linux

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"

	"workerd/internal/jobmanager/cgroups"
)

// rootfsBase is where per-worker root filesystems are assembled before
// pivoting. It lives on the host mount namespace's tmpfs-backed /run.
const rootfsBase = "/run/workerd"

// bindPaths are host directories made visible (read-only) inside the
// worker's rootfs so commands and their shared libraries resolve.
var bindPaths = []string{
	"/bin",
	"/usr/bin",
	"/usr/local/bin",
	"/lib",
	"/lib64",
	"/usr/lib",
}

var userEnv = []string{
	"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
	"HOME=/",
}

func unsharedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
		Cloneflags: syscall.CLONE_NEWPID |
			syscall.CLONE_NEWNS |
			syscall.CLONE_NEWNET,
	}
}

// setupIsolation performs every pre-exec step, in dependency order.
// The cgroup is joined before the rootfs is built so the user command
// inherits membership however the remaining steps go.
func setupIsolation(cfg *initConfig) error {
	// Mount changes must not propagate back to the host namespace.
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return fmt.Errorf("make mounts private: %w", err)
	}

	cgroupPath, err := cgroups.Create(cfg.cgroupRoot, cfg.workerID, cfg.limits)
	if err != nil {
		return fmt.Errorf("create cgroup: %w", err)
	}

	if err := cgroups.JoinSelf(cgroupPath); err != nil {
		return fmt.Errorf("join cgroup: %w", err)
	}

	// Stdin comes from the host /dev/null; open it before the pivot
	// hides the host filesystem.
	if err := redirectStdin(); err != nil {
		return fmt.Errorf("redirect stdin: %w", err)
	}

	if err := buildRootfs(cfg.workerID); err != nil {
		return fmt.Errorf("build rootfs: %w", err)
	}

	if err := setupLoopback(); err != nil {
		return fmt.Errorf("bring up loopback: %w", err)
	}

	return nil
}

func redirectStdin() error {
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return err
	}

	if err := unix.Dup2(int(devNull.Fd()), int(os.Stdin.Fd())); err != nil {
		return err
	}

	return devNull.Close()
}

// buildRootfs mounts a fresh tmpfs, binds the essential binary and
// library paths into it read-only, pivots onto it, and mounts a /proc
// reflecting only the new PID namespace.
func buildRootfs(workerID string) error {
	newRoot := filepath.Join(rootfsBase, workerID)

	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("make rootfs dir: %w", err)
	}

	if err := unix.Mount("tmpfs", newRoot, "tmpfs", unix.MS_NOSUID, "mode=0755"); err != nil {
		return fmt.Errorf("mount rootfs tmpfs: %w", err)
	}

	for _, path := range bindPaths {
		if _, err := os.Stat(path); err != nil {
			// Not all distros have all of these; skip what's absent.
			continue
		}

		target := filepath.Join(newRoot, path)

		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("make bind target %s: %w", path, err)
		}

		if err := unix.Mount(path, target, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			return fmt.Errorf("bind %s: %w", path, err)
		}

		if err := unix.Mount("", target, "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY, ""); err != nil {
			return fmt.Errorf("remount %s read-only: %w", path, err)
		}
	}

	for _, dir := range []string{"proc", "sys", "tmp", "dev", "etc"} {
		if err := os.MkdirAll(filepath.Join(newRoot, dir), 0o755); err != nil {
			return fmt.Errorf("make %s: %w", dir, err)
		}
	}

	if err := pivotRoot(newRoot); err != nil {
		return fmt.Errorf("pivot root: %w", err)
	}

	if err := unix.Mount("proc", "/proc", "proc", unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return fmt.Errorf("mount proc: %w", err)
	}

	if err := unix.Mount("sysfs", "/sys", "sysfs", unix.MS_RDONLY|unix.MS_NOSUID|unix.MS_NODEV|unix.MS_NOEXEC, ""); err != nil {
		return fmt.Errorf("mount sysfs: %w", err)
	}

	if err := unix.Mount("tmpfs", "/tmp", "tmpfs", unix.MS_NOSUID|unix.MS_NODEV, ""); err != nil {
		return fmt.Errorf("mount tmp: %w", err)
	}

	return nil
}

// pivotRoot swaps the root mount for newRoot and detaches the old one,
// so nothing outside newRoot remains reachable.
func pivotRoot(newRoot string) error {
	putOld := filepath.Join(newRoot, ".oldroot")

	if err := os.MkdirAll(putOld, 0o700); err != nil {
		return fmt.Errorf("make put_old: %w", err)
	}

	if err := unix.PivotRoot(newRoot, putOld); err != nil {
		return fmt.Errorf("pivot_root: %w", err)
	}

	if err := os.Chdir("/"); err != nil {
		return fmt.Errorf("chdir root: %w", err)
	}

	if err := unix.Unmount("/.oldroot", unix.MNT_DETACH); err != nil {
		return fmt.Errorf("detach old root: %w", err)
	}

	if err := os.Remove("/.oldroot"); err != nil {
		return fmt.Errorf("remove put_old: %w", err)
	}

	return nil
}

// setupLoopback brings up lo inside the fresh network namespace. No
// other interfaces, routes, or DNS are provisioned; the worker is
// offline by default.
func setupLoopback() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open socket: %w", err)
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq("lo")
	if err != nil {
		return fmt.Errorf("build ifreq: %w", err)
	}

	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return fmt.Errorf("get lo flags: %w", err)
	}

	ifr.SetUint16(ifr.Uint16() | unix.IFF_UP | unix.IFF_RUNNING)

	if err := unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr); err != nil {
		return fmt.Errorf("set lo flags: %w", err)
	}

	return nil
}

// execCommand replaces this process with the user command. On success
// it never returns.
func execCommand(argv []string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("resolve command: %w", err)
	}

	if err := unix.Exec(path, argv, userEnv); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}

	return nil
}

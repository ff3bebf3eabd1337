// Package daemon implements steamctl's start/stop/restart lifecycle: a
// pidfile-tracked background process, launched via a self-re-exec rather
// than a double fork, and stopped with SIGTERM (§6 CLI surface).
//
// Go cannot safely fork() a multi-threaded runtime the way the original
// implementation's daemon.py does (two os.fork() calls plus a setsid);
// os/exec re-invoking the same binary with Setsid in SysProcAttr is the
// standard Go substitute and is what this package does instead.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sc-userland/steamctl/internal/configpaths"
)

// AlreadyRunningError is returned by Start when the pidfile names a
// process that is still alive.
type AlreadyRunningError struct {
	Pid int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("daemon: already running as pid %d", e.Pid)
}

// NotRunningError is returned by Stop when the pidfile is missing or does
// not hold a valid pid. A stale pidfile, whose process is already gone, is
// removed and Stop returns nil.
type NotRunningError struct{}

func (e *NotRunningError) Error() string { return "daemon: not running" }

// Start re-execs the current binary with args plus a hidden "--daemon-child"
// marker, detached into its own session, and records its pid. idx selects
// the pidfile per §6.
func Start(idx int, args []string) error {
	pidPath := configpaths.PidFile(idx)

	if pid, err := readPid(pidPath); err == nil && processAlive(pid) {
		return &AlreadyRunningError{Pid: pid}
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("daemon: resolve self: %w", err)
	}

	childArgs := append(append([]string{}, args...), "--daemon-child")
	cmd := exec.Command(self, childArgs...)
	cmd.Stdin = nil
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("daemon: open %s: %w", os.DevNull, err)
	}
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemon: start child: %w", err)
	}

	if err := configpaths.EnsureDir(pidPath); err != nil {
		return err
	}
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.Process.Pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("daemon: write pidfile: %w", err)
	}

	// Detach: the child now runs in its own session, independent of this
	// short-lived launcher process.
	return cmd.Process.Release()
}

// Stop signals SIGTERM to the pidfile's process and waits for it to exit,
// removing the pidfile once it has.
func Stop(idx int) error {
	pidPath := configpaths.PidFile(idx)

	pid, err := readPid(pidPath)
	if err != nil {
		return &NotRunningError{}
	}

	for i := 0; i < 50; i++ {
		if !processAlive(pid) {
			os.Remove(pidPath)
			return nil
		}
		if err := unix.Kill(pid, unix.SIGTERM); err != nil {
			if errors.Is(err, unix.ESRCH) {
				os.Remove(pidPath)
				return nil
			}
			return fmt.Errorf("daemon: signal pid %d: %w", pid, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("daemon: pid %d did not exit in time", pid)
}

// Restart stops then starts the daemon, tolerating "not running".
func Restart(idx int, args []string) error {
	if err := Stop(idx); err != nil {
		var notRunning *NotRunningError
		if !errors.As(err, &notRunning) {
			return err
		}
	}
	return Start(idx, args)
}

// IsDaemonChild reports whether args carries the hidden re-exec marker
// Start appends, and returns args with the marker stripped.
func IsDaemonChild(args []string) (bool, []string) {
	for i, a := range args {
		if a == "--daemon-child" {
			return true, append(append([]string{}, args[:i]...), args[i+1:]...)
		}
	}
	return false, args
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("daemon: malformed pidfile %s: %w", path, err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

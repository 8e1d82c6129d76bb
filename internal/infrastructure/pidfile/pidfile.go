package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when a live daemon owns the file
type ErrAlreadyRunning struct {
	PID int
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("greens daemon is already running (PID %d)", e.PID)
}

// PIDFile enforces a single daemon instance per PID path
type PIDFile struct {
	path string
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the managed file path
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes the current PID, replacing a stale file left by a dead process
func (p *PIDFile) Acquire() error {
	if pid, running, err := p.Status(); err != nil {
		return err
	} else if running {
		return &ErrAlreadyRunning{PID: pid}
	}

	_ = os.Remove(p.path)
	pidData := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(pidData), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Status reads the recorded PID and whether that process is alive.
// A missing or unparsable file reports (0, false, nil).
func (p *PIDFile) Status() (int, bool, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, nil
	}
	return pid, isProcessRunning(pid), nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Signal 0 checks for existence without delivering anything
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// exists, owned by another user
		return true
	default:
		return false
	}
}

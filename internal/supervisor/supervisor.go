// Package supervisor owns the lifecycle of the watcher child process: spawn,
// graceful-then-forced stop, bounded log capture, and liveness reporting.
// The supervisor and the watcher share nothing but the OS process boundary.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/session"
)

var (
	// ErrAlreadyRunning is returned by Start when a live child exists.
	ErrAlreadyRunning = errors.New("bot is already running")
	// ErrNotRunning is returned by Stop when no live child exists.
	ErrNotRunning = errors.New("bot is not running")
	// ErrNoSession is returned by Start when no account has logged in yet.
	ErrNoSession = errors.New("no session file found, log in first")
)

// Config holds supervisor settings.
type Config struct {
	// Command is the watcher argv; Command[0] is the executable.
	Command []string
	// Env entries are appended to the child's inherited environment.
	Env []string
	// Grace is how long Stop waits after SIGTERM before killing.
	Grace time.Duration
	// RingCapacity bounds the retained log entries.
	RingCapacity int
}

// Status is a non-blocking snapshot of the bot's state.
type Status struct {
	Running bool     `json:"isRunning"`
	Logs    []string `json:"logs"`
}

// Supervisor manages at most one watcher child process.
type Supervisor struct {
	cfg      Config
	sessions *session.Store
	ring     *LogRing
	logger   *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // closed once the child has been reaped
}

// New creates a supervisor. The session store backs Start's precondition
// that some account has logged in.
func New(cfg Config, sessions *session.Store, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 5 * time.Second
	}
	return &Supervisor{
		cfg:      cfg,
		sessions: sessions,
		ring:     NewLogRing(cfg.RingCapacity),
		logger:   logger,
	}
}

// Ring exposes the log buffer for the live tail endpoint.
func (s *Supervisor) Ring() *LogRing {
	return s.ring
}

// Start spawns the watcher process and returns without waiting for it to
// reach steady state. Concurrent calls race under one lock; the loser gets
// ErrAlreadyRunning.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return ErrAlreadyRunning
	}

	username, err := s.sessions.First()
	if errors.Is(err, session.ErrNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("check session files: %w", err)
	}

	if len(s.cfg.Command) == 0 {
		return fmt.Errorf("no watcher command configured")
	}
	cmd := exec.Command(s.cfg.Command[0], s.cfg.Command[1:]...)
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.cfg.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("pipe stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	done := make(chan struct{})
	s.cmd = cmd
	s.done = done

	s.ring.Append(fmt.Sprintf("bot process started (pid %d, account %s)", cmd.Process.Pid, username))
	s.logger.Info("bot process started", "pid", cmd.Process.Pid, "account", username)

	var readers sync.WaitGroup
	readers.Add(2)
	go s.capture(stdout, &readers)
	go s.capture(stderr, &readers)
	go s.reap(cmd, &readers, done)

	return nil
}

// capture copies one output stream into the log ring, line by line.
func (s *Supervisor) capture(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		s.ring.Append(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("log capture ended", "error", err)
	}
}

// reap waits for the child to exit, logs the cause, and clears the live
// handle so a later Start is not rejected.
func (s *Supervisor) reap(cmd *exec.Cmd, readers *sync.WaitGroup, done chan struct{}) {
	// Output pipes must be drained before Wait closes them.
	readers.Wait()
	err := cmd.Wait()

	switch {
	case err == nil:
		s.ring.Append("bot process exited cleanly")
		s.logger.Info("bot process exited cleanly", "pid", cmd.Process.Pid)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				s.ring.Append(fmt.Sprintf("bot process terminated by signal %s", status.Signal()))
				s.logger.Warn("bot process terminated by signal", "signal", status.Signal().String())
			} else {
				s.ring.Append(fmt.Sprintf("bot process exited with code %d", exitErr.ExitCode()))
				s.logger.Warn("bot process exited with non-zero code", "code", exitErr.ExitCode())
			}
		} else {
			s.ring.Append(fmt.Sprintf("bot process wait failed: %v", err))
			s.logger.Error("bot process wait failed", "error", err)
		}
	}

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
		s.done = nil
	}
	s.mu.Unlock()
	close(done)
}

// Stop terminates the watcher: SIGTERM first, SIGKILL if the child is still
// alive after the grace period.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	if cmd == nil {
		return ErrNotRunning
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// The child may have exited between the check and the signal.
		s.logger.Debug("SIGTERM failed", "error", err)
	}

	select {
	case <-done:
		s.ring.Append("bot stopped gracefully")
		s.logger.Info("bot stopped gracefully")
	case <-time.After(s.cfg.Grace):
		s.ring.Append(fmt.Sprintf("bot did not stop within %s, killing", s.cfg.Grace))
		s.logger.Warn("bot did not stop within grace period, killing", "grace", s.cfg.Grace)
		if err := cmd.Process.Kill(); err != nil {
			s.logger.Debug("SIGKILL failed", "error", err)
		}
		<-done
	}
	return nil
}

// Status is a snapshot read; it never blocks on the child and never mutates
// supervisor state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	running := s.cmd != nil
	s.mu.Unlock()

	entries := s.ring.Snapshot()
	logs := make([]string, len(entries))
	for i, e := range entries {
		logs[i] = e.Time.Format("15:04:05") + " " + e.Line
	}
	return Status{Running: running, Logs: logs}
}

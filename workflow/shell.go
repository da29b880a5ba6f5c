package workflow

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PriNova/cody-sub000/workflow/metrics"
)

// defaultShellPath picks the platform's interactive shell: cmd.exe on
// Windows, bash elsewhere.
func defaultShellPath() string {
	if runtime.GOOS == "windows" {
		return "cmd.exe"
	}
	return "bash"
}

// windowsPromptLine matches an interactive cmd.exe prompt line like
// `C:\workspace>dir`, which the output scrubber drops.
var windowsPromptLine = regexp.MustCompile(`^[A-Za-z]:\\.*>.*$`)

var windowsBanners = []string{
	"(c) Microsoft Corporation.",
	"Microsoft Windows",
}

// ShellResult is what one command execution on the Persistent Shell
// returns.
type ShellResult struct {
	Output   string
	ExitCode string
}

// PersistentShell is the long-lived interactive subprocess CLI nodes share
// across one workflow run (spec.md §4.H). It is owned solely by the
// driver; only the currently-executing node's CLI executor writes to it.
type PersistentShell struct {
	mu      sync.Mutex
	path    string
	workDir string
	timeout time.Duration
	metrics *metrics.Metrics

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewPersistentShell returns a PersistentShell that has not yet spawned its
// subprocess; the first Run call spawns it lazily.
func NewPersistentShell(path, workDir string, timeout time.Duration, m *metrics.Metrics) *PersistentShell {
	return &PersistentShell{path: path, workDir: workDir, timeout: timeout, metrics: m}
}

func (s *PersistentShell) spawn() error {
	cmd := exec.Command(s.path)
	if s.workDir != "" {
		cmd.Dir = s.workDir
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	return nil
}

func (s *PersistentShell) kill() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
}

// Dispose kills the subprocess, if any. Safe to call on an already-disposed
// or never-spawned shell.
func (s *PersistentShell) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kill()
}

// exitCodeEcho is the platform-specific way of printing the previous
// command's exit code.
func (s *PersistentShell) exitCodeEcho() string {
	if s.path == "cmd.exe" {
		return "echo %errorlevel%"
	}
	return "echo $?"
}

// Run executes command on the shell and returns its output and exit code.
// On timeout or cancellation the shell is killed (and will be respawned on
// the next call); spec.md §4.H: "on cancellation: kill the shell and
// reject."
func (s *PersistentShell) Run(ctx context.Context, command string) (ShellResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		if err := s.spawn(); err != nil {
			return ShellResult{}, Wrap("", CodeShellFailure, "failed to start shell", err)
		}
	}

	marker := "WORKFLOW_END_" + uuid.NewString()
	frame := command + "\n" + s.exitCodeEcho() + "\necho " + marker + "\n"
	if _, err := io.WriteString(s.stdin, frame); err != nil {
		s.kill()
		return ShellResult{}, Wrap("", CodeShellFailure, "failed to write to shell", err)
	}

	type readResult struct {
		lines []string
		err   error
	}
	done := make(chan readResult, 1)
	go func() {
		var lines []string
		for {
			line, err := s.stdout.ReadString('\n')
			if line != "" {
				lines = append(lines, strings.TrimRight(line, "\r\n"))
			}
			if err != nil {
				done <- readResult{lines, err}
				return
			}
			if len(lines) > 0 && lines[len(lines)-1] == marker {
				done <- readResult{lines, nil}
				return
			}
		}
	}()

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-ctx.Done():
		s.kill()
		if s.metrics != nil {
			s.metrics.ShellRespawned("cancel")
		}
		return ShellResult{}, Wrap("", CodeAborted, "shell command aborted", ctx.Err())
	case <-time.After(timeout):
		s.kill()
		if s.metrics != nil {
			s.metrics.ShellRespawned("timeout")
		}
		return ShellResult{}, NewError("", CodeShellTimeout, "shell command timed out")
	case r := <-done:
		if r.err != nil {
			s.kill()
			return ShellResult{}, Wrap("", CodeShellFailure, "shell closed unexpectedly", r.err)
		}
		return parseShellOutput(r.lines, marker), nil
	}
}

// parseShellOutput drops the trailing marker-echo line, treats the
// penultimate remaining line as the exit code, and filters Windows banner
// and prompt lines out of everything above (spec.md §4.H).
func parseShellOutput(lines []string, marker string) ShellResult {
	if len(lines) > 0 && lines[len(lines)-1] == marker {
		lines = lines[:len(lines)-1]
	}
	exitCode := "0"
	if n := len(lines); n > 0 {
		exitCode = strings.TrimSpace(lines[n-1])
		lines = lines[:n-1]
	}
	if _, err := strconv.Atoi(exitCode); err != nil {
		exitCode = "0"
	}

	var kept []string
	for _, l := range lines {
		if isWindowsBanner(l) || windowsPromptLine.MatchString(l) {
			continue
		}
		kept = append(kept, l)
	}
	return ShellResult{Output: strings.Join(kept, "\n"), ExitCode: exitCode}
}

func isWindowsBanner(line string) bool {
	for _, b := range windowsBanners {
		if strings.Contains(line, b) {
			return true
		}
	}
	return false
}

// defaultDenyList is the CLI executor's security policy (spec.md §4.F.1):
// command heads that may never run, regardless of approval.
var defaultDenyList = []string{
	"rm", "chmod", "shutdown", "history", "user", "sudo", "su", "passwd",
	"chown", "chgrp", "kill", "reboot", "poweroff", "init", "systemctl",
	"journalctl", "dmesg", "lsblk", "lsmod", "modprobe", "insmod", "rmmod",
	"lsusb", "lspci",
}

// isDenied reports whether command's first whitespace-delimited token
// matches an entry in denyList exactly.
func isDenied(command string, denyList []string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	head := fields[0]
	for _, d := range denyList {
		if head == d {
			return true
		}
	}
	return false
}

func expandHome(command string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return command
	}
	return strings.Replace(command, " ~/", " "+home+"/", 1)
}

// Package fuzzy bridges the browser to an external fuzzy matcher such as fzf.
//
// The matcher receives the newline-joined name list on stdin and prints the
// chosen line on stdout; it draws its own interface on the controlling tty.
// Any failure — missing binary, non-zero exit, empty output — is "no
// selection", never a reason for the browser to exit.
package fuzzy

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// FilterError reports a matcher run that produced no selection. Callers log
// it and return to the prior view state unchanged.
type FilterError struct {
	Reason string
	Err    error
}

func (e *FilterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fuzzy filter: %s: %v", e.Reason, e.Err)
	}
	return "fuzzy filter: " + e.Reason
}

func (e *FilterError) Unwrap() error { return e.Err }

// Matcher describes the external matcher invocation.
type Matcher struct {
	command string
	args    []string
}

// New creates a matcher for the given command and arguments.
func New(command string, args ...string) *Matcher {
	return &Matcher{command: command, args: args}
}

// Available reports whether the matcher binary is on PATH.
func (m *Matcher) Available() bool {
	_, err := exec.LookPath(m.command)
	return err == nil
}

// Command builds the matcher invocation over the given names, with stdin
// pre-wired to the joined list and stdout captured into the returned buffer.
// os/exec copies a non-file stdin from its own goroutine, so writing the
// list completes independently of the read side and cannot deadlock on
// large catalogues. Stderr is left alone: fzf and friends render on the tty.
func (m *Matcher) Command(names []string) (*exec.Cmd, *bytes.Buffer) {
	cmd := exec.Command(m.command, m.args...)
	cmd.Stdin = strings.NewReader(strings.Join(names, "\n") + "\n")
	out := &bytes.Buffer{}
	cmd.Stdout = out
	return cmd, out
}

// Result interprets a finished matcher run. A clean exit with non-empty
// trimmed output is a match; anything else is a FilterError.
func (m *Matcher) Result(out *bytes.Buffer, runErr error) (string, error) {
	if runErr != nil {
		return "", &FilterError{Reason: "matcher exited abnormally", Err: runErr}
	}
	choice := strings.TrimSpace(out.String())
	if choice == "" {
		return "", &FilterError{Reason: "no selection"}
	}
	// Matchers may echo the query line too; the selection is the last line.
	if i := strings.LastIndexByte(choice, '\n'); i >= 0 {
		choice = strings.TrimSpace(choice[i+1:])
	}
	return choice, nil
}

// Select runs the matcher synchronously over names and returns the chosen
// line. It is the non-TUI composition of Command and Result; the TUI runs
// the command itself so the terminal can be released around it.
func (m *Matcher) Select(names []string) (string, error) {
	if len(names) == 0 {
		return "", &FilterError{Reason: "nothing to filter"}
	}
	cmd, out := m.Command(names)
	err := cmd.Run()
	return m.Result(out, err)
}

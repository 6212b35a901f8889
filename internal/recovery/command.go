package recovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/domain"
	"os/exec"
	"time"
)

// Command is one external process invocation.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

// CommandResult is what a finished process produced.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs external commands. A non-zero exit is reported through
// ExitCode; errors mean the process could not run to completion.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}

// ExecRunner runs commands as child processes and kills them after Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// DefaultToolTimeout bounds one external tool invocation.
const DefaultToolTimeout = 30 * time.Second

func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*CommandResult, error) {
	if _, err := exec.LookPath(cmd.Path); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Path, domain.ErrExternalToolUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	proc := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	result := &CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s timed out after %s: %w", cmd.Path, r.Timeout, domain.ErrExternalToolFailed)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, fmt.Errorf("failed to run %s: %w: %w", cmd.Path, domain.ErrExternalToolUnavailable, err)
}

// DecompilerCommand describes one native decompiler run scoped to a single class.
type DecompilerCommand struct {
	Java          string
	DecompilerJar string
	Archive       string
	OutputDir     string
	ClassName     string
}

func (d DecompilerCommand) Build() Command {
	return Command{
		Path: d.Java,
		Args: []string{
			"-jar", d.DecompilerJar,
			d.Archive,
			"--outputdir", d.OutputDir,
			"--silent", "true",
			d.ClassName,
		},
	}
}

// Disassembler flag sets, richest first.
var (
	FlagsFull      = []string{"-p", "-constants", "-c", "-s"}
	FlagsSignature = []string{"-p", "-constants", "-s"}
	FlagsDefault   = []string{}
)

// DisassemblerFlagSets is the order the disassembler strategy tries.
var DisassemblerFlagSets = [][]string{FlagsFull, FlagsSignature, FlagsDefault}

// DisassemblerCommand describes one class-file disassembler run.
type DisassemblerCommand struct {
	Disassembler string
	Archive      string
	ClassName    string
	Flags        []string
}

func (d DisassemblerCommand) Build() Command {
	args := make([]string, 0, len(d.Flags)+3)
	args = append(args, "-cp", d.Archive)
	args = append(args, d.Flags...)
	args = append(args, d.ClassName)
	return Command{Path: d.Disassembler, Args: args}
}

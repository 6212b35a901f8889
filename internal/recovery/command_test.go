package recovery_test

import (
	"context"
	"mvnsrc-cli/internal/domain"
	"mvnsrc-cli/internal/recovery"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	t.Parallel()
	requireShell(t)

	runner := recovery.NewExecRunner(5 * time.Second)
	res, err := runner.Run(context.Background(), recovery.Command{
		Path: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Zero(t, res.ExitCode)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	t.Parallel()
	requireShell(t)

	runner := recovery.NewExecRunner(5 * time.Second)
	res, err := runner.Run(context.Background(), recovery.Command{
		Path: "sh",
		Args: []string{"-c", "echo partial; exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestExecRunner_TimeoutKillsProcess(t *testing.T) {
	t.Parallel()
	requireShell(t)

	runner := recovery.NewExecRunner(200 * time.Millisecond)
	start := time.Now()
	res, err := runner.Run(context.Background(), recovery.Command{
		Path: "sh",
		Args: []string{"-c", "exec sleep 10"},
	})
	require.ErrorIs(t, err, domain.ErrExternalToolFailed)
	assert.Nil(t, res)
	assert.Less(t, time.Since(start), 5*time.Second, "process must be killed at the deadline")
}

func TestExecRunner_MissingTool(t *testing.T) {
	t.Parallel()

	runner := recovery.NewExecRunner(time.Second)
	_, err := runner.Run(context.Background(), recovery.Command{Path: "mvnsrc-no-such-tool"})
	require.ErrorIs(t, err, domain.ErrExternalToolUnavailable)
}

func TestNewExecRunner_DefaultTimeout(t *testing.T) {
	t.Parallel()
	assert.Equal(t, recovery.DefaultToolTimeout, recovery.NewExecRunner(0).Timeout)
	assert.Equal(t, time.Second, recovery.NewExecRunner(time.Second).Timeout)
}

func TestCommandBuilders(t *testing.T) {
	t.Parallel()

	decompile := recovery.DecompilerCommand{
		Java:          "java",
		DecompilerJar: "cfr.jar",
		Archive:       "/repo/lib-1.0.jar",
		OutputDir:     "/tmp/out",
		ClassName:     "org.example.Foo",
	}.Build()
	assert.Equal(t, "java", decompile.Path)
	assert.Equal(t, []string{"-jar", "cfr.jar", "/repo/lib-1.0.jar", "--outputdir", "/tmp/out", "--silent", "true", "org.example.Foo"}, decompile.Args)

	disassemble := recovery.DisassemblerCommand{
		Disassembler: "javap",
		Archive:      "/repo/lib-1.0.jar",
		ClassName:    "org.example.Foo",
		Flags:        recovery.FlagsSignature,
	}.Build()
	assert.Equal(t, "javap", disassemble.Path)
	assert.Equal(t, []string{"-cp", "/repo/lib-1.0.jar", "-p", "-constants", "-s", "org.example.Foo"}, disassemble.Args)
}

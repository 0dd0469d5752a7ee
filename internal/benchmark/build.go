package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

// DefaultBuildCommand produces the benchmark executable in the build directory.
const DefaultBuildCommand = "make"

// Build runs command inside dir. The command is split with shell quoting rules but
// not passed through a shell.
func Build(ctx context.Context, dir, command string) error {
	if command == "" {
		command = DefaultBuildCommand
	}
	argv, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("invalid build command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("invalid build command %q: empty", command)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build failed: %w\nOutput:\n%s", err, out.String())
	}
	return nil
}

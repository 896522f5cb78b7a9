package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Viewer shows a figure and returns once the user is done with it.
type Viewer interface {
	Show(ctx context.Context, fig *Figure, o Options) error
}

// CommandViewer hands the figure to an external image viewer and waits for a
// line on In before returning. It needs no window system in this process and
// is used when the viewer mode is "command".
type CommandViewer struct {
	// Command is the viewer program and its arguments; the PNG path is appended.
	Command []string
	In      io.Reader
	Out     io.Writer
}

// DefaultViewerCommand is the desktop opener for the current OS.
func DefaultViewerCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"cmd", "/c", "start", ""}
	default:
		return []string{"xdg-open"}
	}
}

// Show writes the figure to a temporary PNG, opens it and blocks until Enter.
func (v *CommandViewer) Show(ctx context.Context, fig *Figure, o Options) error {
	cmdArgs := v.Command
	if len(cmdArgs) == 0 {
		cmdArgs = DefaultViewerCommand()
	}
	tmp, err := os.CreateTemp("", "tce-*.png")
	if err != nil {
		return err
	}
	path := tmp.Name()
	defer os.Remove(path)
	if err := fig.WritePNG(tmp, o); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	args := append(append([]string{}, cmdArgs[1:]...), path)
	cmd := exec.CommandContext(ctx, cmdArgs[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("viewer %s: %w", cmdArgs[0], err)
	}

	out := v.Out
	if out == nil {
		out = os.Stdout
	}
	in := v.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprint(out, "Press Enter for the next figure...")
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return ctx.Err()
}

// Package clipboard is the text-sink capability used by the copy flows.
// Copying degrades through a chain of sinks and never fails outright: the
// final fallback presents the literal text for manual copying.
package clipboard

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Sink accepts text for copying.
type Sink interface {
	Name() string
	Copy(text string) error
}

// copyCommands are the platform copy tools probed in order.
var copyCommands = [][]string{
	{"pbcopy"},
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
}

// CommandSink pipes text into a platform clipboard command.
type CommandSink struct {
	path string
	args []string
}

// NewCommandSink probes for an available platform copy command.
func NewCommandSink() (*CommandSink, error) {
	for _, cmd := range copyCommands {
		if path, err := exec.LookPath(cmd[0]); err == nil {
			return &CommandSink{path: path, args: cmd[1:]}, nil
		}
	}
	return nil, fmt.Errorf("no clipboard command found")
}

func (s *CommandSink) Name() string { return "clipboard" }

func (s *CommandSink) Copy(text string) error {
	cmd := exec.Command(s.path, s.args...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.path, err)
	}
	return nil
}

// PromptSinkName identifies the manual-copy fallback in Copy results.
const PromptSinkName = "manual prompt"

// PromptSink writes the literal text to Out with a manual-copy prompt.
// It is the terminal fallback and never fails beyond the write itself.
type PromptSink struct {
	Out io.Writer
}

func (s *PromptSink) Name() string { return PromptSinkName }

func (s *PromptSink) Copy(text string) error {
	_, err := fmt.Fprintf(s.Out, "Copying failed. Please copy the text below manually:\n\n%s\n", text)
	return err
}

// Copy tries each sink in order and returns the name of the one that
// succeeded. An error is returned only when every sink fails.
func Copy(text string, sinks ...Sink) (string, error) {
	var lastErr error
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if err := s.Copy(text); err != nil {
			lastErr = err
			continue
		}
		return s.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no sinks configured")
	}
	return "", lastErr
}

// Default returns the standard sink chain: the platform clipboard command
// when one exists, then the manual prompt writing to out.
func Default(out io.Writer) []Sink {
	var sinks []Sink
	if cmd, err := NewCommandSink(); err == nil {
		sinks = append(sinks, cmd)
	}
	sinks = append(sinks, &PromptSink{Out: out})
	return sinks
}

// Package prompt implements the interactive prompting surface on a
// terminal: plain line input, masked secret input, and the suggestion
// picker.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/tui/picker"
	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Ensure Terminal implements the interface.
var _ driven.Prompter = (*Terminal)(nil)

// Terminal prompts on stdin/stdout.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	styles   *styles.Styles
	debounce time.Duration

	// runPicker is swapped in tests.
	runPicker func(ctx context.Context, req driven.PickRequest, debounce time.Duration) (string, bool, error)
}

// NewTerminal creates a prompter over stdin/stdout.
func NewTerminal(debounce time.Duration) *Terminal {
	if debounce <= 0 {
		debounce = picker.DefaultDebounce
	}
	return &Terminal{
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		styles:   styles.DefaultStyles(),
		debounce: debounce,
		runPicker: picker.Run,
	}
}

// Input asks for a typed value. An empty line is a cancel.
func (t *Terminal) Input(ctx context.Context, req driven.InputRequest) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	fmt.Fprintf(t.out, "%s", t.styles.Title.Render(req.Label))
	if req.Placeholder != "" {
		fmt.Fprintf(t.out, " %s", t.styles.Muted.Render("("+req.Placeholder+")"))
	}
	fmt.Fprint(t.out, ": ")

	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading input: %w", err)
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Secret asks for a masked value. Falls back to plain input when
// stdin is not a terminal, which keeps scripted runs working.
func (t *Terminal) Secret(ctx context.Context, req driven.InputRequest) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return t.Input(ctx, req)
	}

	fmt.Fprintf(t.out, "%s: ", t.styles.Title.Render(req.Label))
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", false, fmt.Errorf("reading secret: %w", err)
	}

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Pick runs the suggestion picker.
func (t *Terminal) Pick(ctx context.Context, req driven.PickRequest) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return t.runPicker(ctx, req, t.debounce)
}

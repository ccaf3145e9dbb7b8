// Package interactive implements the terminal prompts the CLI uses.
// Tests and the remote helper never prompt; they either pass flags or
// run against a Prompter double.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input. The concrete Terminal implementation
// reads stdin; tests supply a scripted double.
type Prompter interface {
	Input(prompt string) (string, error)
	Password(prompt string) (string, error)
	Confirm(prompt string, def bool) (bool, error)
	Select(prompt string, options []string) (int, error)
}

// Terminal prompts on stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal returns a Prompter over the process terminal.
func NewTerminal() *Terminal {
	return &Terminal{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (t *Terminal) Input(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a secret without echoing it.
func (t *Terminal) Password(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func (t *Terminal) Confirm(prompt string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(t.out, "%s (%s) ", prompt, hint)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select shows a numbered list and returns the chosen index.
func (t *Terminal) Select(prompt string, options []string) (int, error) {
	fmt.Fprintln(t.out, prompt)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o)
	}
	for {
		line, err := t.Input("choice")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "enter a number between 1 and %d\n", len(options))
	}
}

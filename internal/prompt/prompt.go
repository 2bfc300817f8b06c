package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// ErrInvalidSelection is returned for answers that do not name an option.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNotInteractive is returned when a choice is needed but nobody can answer.
	ErrNotInteractive = errors.New("selection needs an interactive terminal")
	// ErrNoOptions is returned when there is nothing to choose from.
	ErrNoOptions = errors.New("no options to choose from")
)

// Option is one menu entry.
type Option struct {
	// Label is the primary text, e.g. a remote name.
	Label string
	// Detail is shown next to the label, e.g. the remote URL.
	Detail string
}

// Chooser picks one of several options.
type Chooser interface {
	// Choose returns the index of the chosen option.
	Choose(ctx context.Context, title string, options []Option) (int, error)
}

// Terminal asks the operator through a numbered menu.
type Terminal struct {
	// in is where the answer is read from.
	in io.Reader
	// out is where the menu is printed.
	out io.Writer
	// interactive reports whether in is attached to a terminal.
	interactive bool
}

// NewTerminal creates a chooser reading from stdin and printing to stdout.
// It refuses to prompt when stdin is not a terminal.
func NewTerminal() *Terminal {
	return &Terminal{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewScripted creates a chooser that reads answers from in, for tests and piped input.
func NewScripted(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		interactive: true,
	}
}

// Choose implements Chooser.
func (t *Terminal) Choose(_ context.Context, title string, options []Option) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoOptions
	}

	if !t.interactive {
		return 0, fmt.Errorf("%s: %w", title, ErrNotInteractive)
	}

	number := color.New(color.FgHiYellow, color.Bold).SprintFunc()
	detail := color.New(color.FgHiGreen).SprintFunc()

	if _, err := fmt.Fprintln(t.out, title); err != nil {
		return 0, err
	}

	for i, option := range options {
		if _, err := fmt.Fprintf(t.out, "    %s %s        %s\n",
			number(strconv.Itoa(i+1)+")"), option.Label, detail(option.Detail)); err != nil {
			return 0, err
		}
	}

	answer, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		return 0, fmt.Errorf("read selection: %w", err)
	}

	picked, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || picked < 1 || picked > len(options) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSelection, strings.TrimSpace(answer))
	}

	return picked - 1, nil
}

// Fixed chooses the option whose label equals a preset value.
type Fixed struct {
	// label is the preset answer.
	label string
}

// NewFixed creates a chooser that always answers label.
func NewFixed(label string) *Fixed {
	return &Fixed{label: label}
}

// Choose implements Chooser.
func (f *Fixed) Choose(_ context.Context, _ string, options []Option) (int, error) {
	for i, option := range options {
		if option.Label == f.label {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q is not among the options", ErrInvalidSelection, f.label)
}

package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func remotes() []Option {
	return []Option{
		{Label: "fork", Detail: "https://github.com/someone/sdk-nrf"},
		{Label: "mirror", Detail: "https://git.example.com/sdk-nrf"},
	}
}

// TestTerminal_Choose prints a numbered menu and maps the answer back to an index.
func TestTerminal_Choose(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	chooser := NewScripted(strings.NewReader("2\n"), &out)

	idx, err := chooser.Choose(context.Background(), "More than one repo available. Choose one:", remotes())
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	menu := out.String()
	require.Contains(t, menu, "More than one repo available. Choose one:")
	require.Contains(t, menu, "1)")
	require.Contains(t, menu, "2)")
	require.Contains(t, menu, "https://git.example.com/sdk-nrf")
}

// TestTerminal_NoTrailingNewline accepts an answer terminated by EOF.
func TestTerminal_NoTrailingNewline(t *testing.T) {
	t.Parallel()

	idx, err := NewScripted(strings.NewReader("1"), new(bytes.Buffer)).Choose(context.Background(), "pick", remotes())
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}

// TestTerminal_Invalid rejects out-of-range, non-numeric and missing answers.
func TestTerminal_Invalid(t *testing.T) {
	t.Parallel()

	for _, answer := range []string{"0\n", "3\n", "fork\n"} {
		_, err := NewScripted(strings.NewReader(answer), new(bytes.Buffer)).Choose(context.Background(), "pick", remotes())
		require.ErrorIs(t, err, ErrInvalidSelection, answer)
	}

	_, err := NewScripted(strings.NewReader(""), new(bytes.Buffer)).Choose(context.Background(), "pick", remotes())
	require.Error(t, err)

	_, err = NewScripted(strings.NewReader("1\n"), new(bytes.Buffer)).Choose(context.Background(), "pick", nil)
	require.ErrorIs(t, err, ErrNoOptions)
}

// TestTerminal_NotInteractive refuses to block when nobody can answer.
func TestTerminal_NotInteractive(t *testing.T) {
	t.Parallel()

	chooser := &Terminal{in: strings.NewReader("1\n"), out: new(bytes.Buffer)}

	_, err := chooser.Choose(context.Background(), "pick", remotes())
	require.ErrorIs(t, err, ErrNotInteractive)
}

// TestFixed picks by label.
func TestFixed(t *testing.T) {
	t.Parallel()

	idx, err := NewFixed("mirror").Choose(context.Background(), "pick", remotes())
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = NewFixed("origin").Choose(context.Background(), "pick", remotes())
	require.ErrorIs(t, err, ErrInvalidSelection)
}

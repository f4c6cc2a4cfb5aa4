package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinPrompter asks yes/no questions on the terminal. Anything other than
// an explicit yes declines.
type StdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinPrompter reads from in and writes prompts to out; nil arguments
// default to stdin/stdout.
func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &StdinPrompter{in: bufio.NewReader(in), out: out}
}

// Confirm implements stack.Prompter.
func (p *StdinPrompter) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	response, err := p.in.ReadString('\n')
	if err != nil && response == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// AutoApprovePrompter accepts every prompt, for non-interactive runs.
type AutoApprovePrompter struct{}

// Confirm implements stack.Prompter.
func (AutoApprovePrompter) Confirm(string) (bool, error) {
	return true, nil
}

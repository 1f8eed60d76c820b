package menu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mensylisir/xmstack/pipeline"
	"github.com/mensylisir/xmstack/step"
)

// Prompter reads operator answers line by line. It is the pipeline
// Operator of interactive runs.
//
// Input is read one byte at a time and never buffered ahead, so a step
// command sharing the same stdin sees everything after the answer.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// NewPrompter creates a Prompter over in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// readLine returns the next line including its newline. At end of input
// it returns what was read together with io.EOF.
func (p *Prompter) readLine() (string, error) {
	var (
		line bytes.Buffer
		b    [1]byte
	)
	for {
		n, err := p.in.Read(b[:])
		if n == 1 {
			line.WriteByte(b[0])
			if b[0] == '\n' {
				return line.String(), nil
			}
		}
		if err != nil {
			return line.String(), err
		}
	}
}

// Ask prints prompt and returns the next trimmed line. At end of input it
// returns io.EOF.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)
	line, err := p.readLine()
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(p.out)
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks whether to run the next step: y runs, n or s skips, q aborts.
// An empty answer runs.
func (p *Prompter) Confirm(ctx context.Context, pos pipeline.Position) (pipeline.Decision, error) {
	prompt := fmt.Sprintf("Run step [%d/%d] %s? [Y/n/s/q]: ", pos.Index+1, pos.Total, pos.Step.Name())
	for {
		answer, err := p.Ask(ctx, prompt)
		if err != nil {
			return pipeline.Abort, err
		}
		switch strings.ToLower(answer) {
		case "", "y", "yes":
			return pipeline.Run, nil
		case "n", "no", "s", "skip":
			return pipeline.Skip, nil
		case "q", "quit":
			return pipeline.Abort, nil
		}
		fmt.Fprintln(p.out, WarnMsg("please answer y, n, s or q"))
	}
}

// OnFailure asks whether to continue after a failed step. Anything but y
// aborts.
func (p *Prompter) OnFailure(ctx context.Context, pos pipeline.Position, _ step.ExecutionResult) (pipeline.Decision, error) {
	answer, err := p.Ask(ctx, fmt.Sprintf("Step %s failed. Continue anyway? [y/N]: ", pos.Step.Name()))
	if err != nil {
		return pipeline.Abort, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return pipeline.Continue, nil
	}
	return pipeline.Abort, nil
}

// chosen runs a step the operator already picked from the menu without
// asking again.
type chosen struct {
	*Prompter
}

func (chosen) Confirm(context.Context, pipeline.Position) (pipeline.Decision, error) {
	return pipeline.Run, nil
}

var (
	_ pipeline.Operator = (*Prompter)(nil)
	_ pipeline.Operator = chosen{}
)

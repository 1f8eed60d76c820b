// Package menu is the interactive console: it lists sections and steps and
// dispatches the operator's choice into a sequence executor.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/pipeline"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
)

// Controller runs the menu loop.
type Controller struct {
	rt       runtime.Runtime
	sections []*section.Section
	prompter *Prompter
	log      *logrus.Entry
	title    string
}

// NewController creates a Controller. Output goes to rt.Out().
func NewController(rt runtime.Runtime, sections []*section.Section, prompter *Prompter, log *logrus.Entry) *Controller {
	return &Controller{
		rt:       rt,
		sections: sections,
		prompter: prompter,
		log:      log,
		title:    rt.Config().Metadata.Name,
	}
}

// Run shows the main menu until the operator quits or input ends.
func (c *Controller) Run(ctx context.Context) error {
	for {
		renderMain(c.rt.Out(), c.title, c.sections)
		choice, err := c.prompter.Ask(ctx, "\nSelect an option: ")
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice = strings.ToLower(choice); choice {
		case "q":
			fmt.Fprintln(c.rt.Out(), "Bye.")
			return nil
		case "a":
			if err := c.runSequence(ctx, "all sections", c.prompter, c.sections...); err != nil {
				return err
			}
			continue
		}

		s, ok := pick(choice, len(c.sections))
		if !ok {
			fmt.Fprintln(c.rt.Out(), ErrorMsg("invalid choice %q", choice))
			continue
		}
		quit, err := c.sectionMenu(ctx, c.sections[s])
		if err != nil || quit {
			return err
		}
	}
}

// sectionMenu reports quit when input ended inside the section menu.
func (c *Controller) sectionMenu(ctx context.Context, s *section.Section) (bool, error) {
	for {
		renderSection(c.rt.Out(), s)
		choice, err := c.prompter.Ask(ctx, "\nSelect an option: ")
		if err != nil {
			return true, ignoreEOF(err)
		}

		switch choice = strings.ToLower(choice); choice {
		case "b":
			return false, nil
		case "a":
			if err := c.runSequence(ctx, s.Name(), c.prompter, s); err != nil {
				return false, err
			}
			continue
		}

		i, ok := pick(choice, s.Len())
		if !ok {
			fmt.Fprintln(c.rt.Out(), ErrorMsg("invalid choice %q", choice))
			continue
		}
		one, err := s.Only(i)
		if err != nil {
			return false, err
		}
		if err := c.runSequence(ctx, s.Steps()[i].Name(), chosen{c.prompter}, one); err != nil {
			return false, err
		}
	}
}

func (c *Controller) runSequence(ctx context.Context, name string, op pipeline.Operator, sections ...*section.Section) error {
	res, err := pipeline.NewExecutor(c.rt, op).Run(ctx, c.log, name, sections...)
	if err != nil {
		return err
	}
	RenderSummary(c.rt.Out(), res)
	return nil
}

// pick parses a 1-based menu number into an index below n.
func pick(choice string, n int) (int, bool) {
	i, err := strconv.Atoi(choice)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

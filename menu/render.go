package menu

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/pipeline/ending"
	"github.com/mensylisir/xmstack/section"
	xmtime "github.com/mensylisir/xmstack/time"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(purple).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
)

// ConfigureColor picks the color profile of the terminal, or none at all
// when plain is set.
func ConfigureColor(plain bool) {
	if plain {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

func SuccessMsg(format string, a ...any) string {
	return successStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func WarnMsg(format string, a ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func ErrorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func entry(key, label string) string {
	return fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%2s.", key)), label)
}

// renderMain lists the sections with their numbers.
func renderMain(w io.Writer, title string, sections []*section.Section) {
	var sb strings.Builder
	sb.WriteString("\n" + titleStyle.Render(title) + "\n\n")
	for i, s := range sections {
		sb.WriteString(entry(strconv.Itoa(i+1), fmt.Sprintf("%s %s", s.Title(), mutedStyle.Render(fmt.Sprintf("(%d steps)", s.Len())))))
	}
	sb.WriteString(entry("a", "Run everything"))
	sb.WriteString(entry("q", "Quit"))
	fmt.Fprint(w, sb.String())
}

// renderSection lists the steps of s.
func renderSection(w io.Writer, s *section.Section) {
	var sb strings.Builder
	sb.WriteString("\n" + titleStyle.Render(s.Title()) + "\n\n")
	for i, st := range s.Steps() {
		sb.WriteString(entry(strconv.Itoa(i+1), st.Name()))
	}
	sb.WriteString(entry("a", "Run section"))
	sb.WriteString(entry("b", "Back"))
	fmt.Fprint(w, sb.String())
}

// Table renders a styled table with rounded borders.
func Table(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

func statusCell(s ending.StepStatus) string {
	switch s {
	case ending.StepSucceeded:
		return successStyle.Render(s.String())
	case ending.StepFailed:
		return errorStyle.Render(s.String())
	default:
		return warnStyle.Render(s.String())
	}
}

// RenderSummary prints the outcome of a sequence.
func RenderSummary(w io.Writer, res *ending.SequenceResult) {
	rows := make([][]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		detail := xmtime.Elapsed(s.Duration)
		if s.Status == ending.StepSkipped {
			detail = "-"
		}
		rows = append(rows, []string{s.Section, s.Step, statusCell(s.Status), detail})
	}
	fmt.Fprintln(w)
	if len(rows) > 0 {
		fmt.Fprintln(w, Table([]string{"Section", "Step", "Result", "Time"}, rows))
	}
	counts := fmt.Sprintf("%d succeeded, %d failed, %d skipped in %s",
		res.Count(ending.StepSucceeded), res.Count(ending.StepFailed), res.Count(ending.StepSkipped), xmtime.Elapsed(res.Duration))
	switch {
	case res.Succeeded():
		fmt.Fprintln(w, SuccessMsg("%s completed: %s", res.Name, counts))
	case res.Phase == ending.PhaseCompleted:
		fmt.Fprintln(w, WarnMsg("%s completed with failures: %s", res.Name, counts))
	default:
		fmt.Fprintln(w, ErrorMsg("%s %s: %s", res.Name, res.Phase, counts))
	}
}

// RenderList prints the configured sections, steps and components.
func RenderList(w io.Writer, cfg *config.ConsoleConfig) {
	var rows [][]string
	for _, s := range cfg.Spec.Sections {
		for i, st := range s.Steps {
			validation := "-"
			if st.Validation != nil {
				validation = xmtime.ShortDur(st.Validation.TimeoutDuration())
			}
			rows = append(rows, []string{s.Name, strconv.Itoa(i + 1), st.Name, validation})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, Table([]string{"Section", "#", "Step", "Validation"}, rows))
	}

	rows = nil
	for _, c := range cfg.Spec.Components {
		img := c.Image.Ref
		if img == "" {
			img = "-"
		}
		rows = append(rows, []string{c.Name, c.Namespace, img, c.Description})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, Table([]string{"Component", "Namespace", "Image", "Description"}, rows))
	}
}

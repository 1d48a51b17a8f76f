package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/service"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")
)

// printer renders plain text unless it writes to a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return printer{w: w, color: color}
}

func (p printer) style(c lipgloss.Color, bold bool, s string) string {
	if !p.color {
		return s
	}
	return lipgloss.NewStyle().Foreground(c).Bold(bold).Render(s)
}

func (p printer) state(v *service.StateView) {
	statusColor := colorDim
	switch v.Status {
	case model.StatusRunning:
		statusColor = colorGreen
	case model.StatusPaused:
		statusColor = colorYellow
	case model.StatusCompleted:
		statusColor = colorRed
	}

	fmt.Fprintf(p.w, "%s %s  %s\n",
		p.style(colorHeader, true, modeLabel(v.Mode)),
		p.style(statusColor, false, strings.ToUpper(v.Status)),
		formatClock(remaining(v)),
	)
}

func (p printer) statistics(s *model.Statistics, achievements []model.Achievement) {
	fmt.Fprintln(p.w, p.style(colorHeader, true, "STATISTICS"))
	fmt.Fprintf(p.w, "  sessions        %d\n", s.TotalSessions)
	fmt.Fprintf(p.w, "  minutes         %d\n", s.TotalMinutes)
	fmt.Fprintf(p.w, "  streak          %d (best %d)\n", s.DailyStreak, s.BestStreak)
	fmt.Fprintf(p.w, "  average         %.1f min\n", s.AverageSessionDuration)
	fmt.Fprintf(p.w, "  completion rate %d%%\n", s.CompletionRate)
	fmt.Fprintf(p.w, "  this week       %d min\n", s.WeeklyMinutes)
	fmt.Fprintf(p.w, "  this month      %d min\n", s.MonthlyMinutes)

	if len(achievements) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.style(colorHeader, true, "ACHIEVEMENTS"))
	for _, a := range achievements {
		mark := p.style(colorDim, false, "○")
		if a.Unlocked() {
			mark = p.style(colorGreen, false, "●")
		}
		fmt.Fprintf(p.w, "  %s %-20s %d/%d\n", mark, a.Name, a.Progress, a.Target)
	}
}

// remaining derives the seconds left from the deadline when the session is
// running, using the server's clock reading.
func remaining(v *service.StateView) int {
	if v.Running() && v.DeadlineEpochMs != nil {
		diff := *v.DeadlineEpochMs - v.ServerTimeEpochMs
		if diff <= 0 {
			return 0
		}
		return int(diff / 1000)
	}
	return v.TimeLeftSeconds
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func modeLabel(m model.Mode) string {
	switch m {
	case model.ModeShortBreak:
		return "Short break"
	case model.ModeLongBreak:
		return "Long break"
	case model.ModeCustom:
		return "Custom"
	default:
		return "Focus"
	}
}

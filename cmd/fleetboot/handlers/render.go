package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/simulation"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// paint renders text with style when output is a terminal.
func paint(style lipgloss.Style, text string) string {
	if !colorEnabled() {
		return text
	}
	return style.Render(text)
}

func stateText(s bootstrap.State) string {
	switch s {
	case bootstrap.StateReady:
		return paint(okStyle, string(s))
	case bootstrap.StateFailed:
		return paint(failStyle, string(s))
	default:
		return string(s)
	}
}

func header(b *strings.Builder, title string) {
	b.WriteString("\n")
	b.WriteString(paint(titleStyle, "  "+title))
	b.WriteString("\n")
	b.WriteString(paint(dimStyle, "  "+strings.Repeat("═", 30)))
	b.WriteString("\n")
}

func row(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "    %-14s %s\n", key+":", value)
}

// renderReport produces the summary of a run.
func renderReport(fleet string, r bootstrap.Report) string {
	var b strings.Builder
	header(&b, fmt.Sprintf("fleetboot: %s", fleet))

	row(&b, "Node", r.Node)
	row(&b, "State", stateText(r.State))
	row(&b, "Role", string(r.Role))
	row(&b, "Leader", r.LeaderAddress)
	row(&b, "Token", r.Fingerprint)
	if r.AlreadyRunning {
		row(&b, "Note", "cluster runtime already running")
	}
	row(&b, "Duration", r.Duration.Round(time.Millisecond).String())
	if r.Err != nil {
		b.WriteString("\n")
		b.WriteString(paint(failStyle, "    "+r.Err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

// renderRole produces the output of the role command.
func renderRole(out RoleOutput) string {
	var b strings.Builder
	header(&b, fmt.Sprintf("fleetboot role: %s", out.Fleet))
	row(&b, "Node", out.Node)
	row(&b, "Strategy", out.Strategy)
	row(&b, "Role", paint(sectionStyle, out.Role))
	row(&b, "Leader", out.Leader)
	return b.String()
}

// renderSimulation produces a per-node table of a simulation.
func renderSimulation(fleet string, res simulation.Result) string {
	var b strings.Builder
	header(&b, fmt.Sprintf("fleetboot simulate: %s", fleet))

	b.WriteString("\n")
	b.WriteString(paint(sectionStyle, "  Nodes"))
	b.WriteString("\n")
	b.WriteString(paint(dimStyle, "  "+strings.Repeat("─", 60)))
	b.WriteString("\n")
	for i, r := range res.Reports {
		role := string(r.Role)
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(&b, "    %-3d %-12s %-36s %s\n", i, role, r.Node, stateText(r.State))
	}

	b.WriteString("\n")
	b.WriteString(paint(sectionStyle, "  Summary"))
	b.WriteString("\n")
	b.WriteString(paint(dimStyle, "  "+strings.Repeat("─", 35)))
	b.WriteString("\n")
	row(&b, "Initializers", fmt.Sprintf("%d", len(res.Initializers())))
	row(&b, "Ready", fmt.Sprintf("%d/%d", res.Ready(), len(res.Reports)))
	row(&b, "Members", fmt.Sprintf("%d", len(res.Cluster.Members())))
	row(&b, "Health polls", fmt.Sprintf("%d", res.RegistryPolls))
	row(&b, "Elapsed", res.Elapsed.Round(time.Millisecond).String())
	return b.String()
}

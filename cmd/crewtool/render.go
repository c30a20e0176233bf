package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
)

// theme keeps CLI colors in one place. lipgloss drops colors on its own when
// stdout is not a terminal, so piped output stays plain.
type theme struct {
	ok     lipgloss.Style
	failed lipgloss.Style
	header lipgloss.Style
	dim    lipgloss.Style
	name   lipgloss.Style
}

var styles = theme{
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
	failed: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")),
	dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	name:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
}

func renderResult(w io.Writer, id string, res crew.Result) {
	status := styles.ok.Render("ok")
	if !res.Success {
		status = styles.failed.Render("failed [" + string(res.Category) + "]")
	}
	meta := fmt.Sprintf("%s  %dms", id, res.DurationMs)
	if res.ExitCode != nil {
		meta += "  exit=" + strconv.Itoa(*res.ExitCode)
	}
	fmt.Fprintf(w, "%s %s\n", status, styles.dim.Render(meta))

	if res.Success {
		if res.Output != "" {
			fmt.Fprintln(w, res.Output)
		}
		return
	}
	fmt.Fprintln(w, res.Error)
}

func renderCrews(w io.Writer, crews []crew.Info) {
	if len(crews) == 0 {
		fmt.Fprintln(w, styles.dim.Render("No crews found."))
		return
	}
	width := 0
	for _, c := range crews {
		width = max(width, len(c.Package)+1+len(c.Name))
	}
	for _, c := range crews {
		full := c.Package + "." + c.Name
		pad := strings.Repeat(" ", width-len(full))
		fmt.Fprintf(w, "%s%s  %s\n", styles.name.Render(full), pad, c.Description)
	}
}

func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.dim.Render("No invocations recorded."))
		return
	}
	fmt.Fprintln(w, styles.header.Render(fmt.Sprintf("%-36s  %-20s  %-24s  %-14s  %s",
		"ID", "WHEN", "CREW", "STATUS", "DURATION")))
	for _, e := range entries {
		status := "ok"
		style := styles.ok
		if !e.Success {
			status = string(e.Category)
			style = styles.failed
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-24s  %s  %dms\n",
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Package+"."+e.Crew,
			style.Render(fmt.Sprintf("%-14s", status)),
			e.DurationMs,
		)
	}
}

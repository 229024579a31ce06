package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/randalmurphal/trackr/internal/db"
	"github.com/randalmurphal/trackr/internal/importer"
	"github.com/randalmurphal/trackr/internal/task"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// colorEnabled reports whether w is an interactive terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// render applies style only when w is a terminal.
func render(w io.Writer, style lipgloss.Style, s string) string {
	if !colorEnabled(w) {
		return s
	}
	return style.Render(s)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output writes v as JSON when --json is set, otherwise calls text.
func (a *app) output(w io.Writer, v any, text func(io.Writer) error) error {
	if a.jsonOut {
		return printJSON(w, v)
	}
	return text(w)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printProjects(w io.Writer, projects []db.Project) error {
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "No projects. Create one with 'trackr project create <title>'.")
		return err
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, render(w, headerStyle, "ID\tTITLE\tSTATUS\tPRIORITY\tPROGRESS\tROADMAP"))
	for _, p := range projects {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d%%\t%s\n",
			p.ID, p.Title, p.Status, p.Priority, p.ProgressPercent, dash(p.RoadmapPath))
	}
	return tw.Flush()
}

func printProject(w io.Writer, p *db.Project) error {
	_, _ = fmt.Fprintf(w, "%s\n", render(w, headerStyle, fmt.Sprintf("#%d %s", p.ID, p.Title)))
	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n", p.Description)
	}
	_, _ = fmt.Fprintf(w, "Status:   %s\n", p.Status)
	_, _ = fmt.Fprintf(w, "Priority: %s\n", p.Priority)
	_, _ = fmt.Fprintf(w, "Progress: %d%%\n", p.ProgressPercent)
	_, err := fmt.Fprintf(w, "Roadmap:  %s\n", dash(p.RoadmapPath))
	return err
}

func printTasks(w io.Writer, tasks []db.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, render(w, headerStyle, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE"))
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(task.DateLayout)
		}
		status := string(t.Status)
		if t.Status == task.StatusDone {
			status = render(w, successStyle, status)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, status, t.Priority, due, t.Title)
	}
	return tw.Flush()
}

func printBoard(w io.Writer, b *db.Board) error {
	_, _ = fmt.Fprintln(w, render(w, headerStyle, fmt.Sprintf("Board %d (project %d)", b.ID, b.ProjectID)))
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tORDER\tNAME\tWIP")
	for _, c := range b.Columns {
		wip := "-"
		if c.WIPLimit != nil {
			wip = fmt.Sprintf("%d", *c.WIPLimit)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", c.ID, c.OrderIndex, c.Name, wip)
	}
	return tw.Flush()
}

// printSyncResult summarizes a roadmap import or sync.
func printSyncResult(w io.Writer, r *importer.SyncResult) error {
	if r.Path != "" {
		_, _ = fmt.Fprintf(w, "Roadmap: %s (%s)\n", r.Path, r.Source)
	} else {
		_, _ = fmt.Fprintf(w, "Source: %s\n", r.Source)
	}
	_, _ = fmt.Fprintln(w, render(w, successStyle, fmt.Sprintf("Created %d task(s)", len(r.Created))))
	if r.Skipped > 0 {
		_, _ = fmt.Fprintln(w, render(w, subtleStyle, fmt.Sprintf("Skipped %d existing", r.Skipped)))
	}
	for _, f := range r.Failed {
		_, _ = fmt.Fprintln(w, render(w, warnStyle, fmt.Sprintf("  failed %q: %s", f.Title, f.Error)))
	}
	_, err := fmt.Fprintf(w, "Run: %s\n", r.RunID)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

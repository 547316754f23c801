package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/wwtest625/scoop-ui/internal/prefs"
	"github.com/wwtest625/scoop-ui/internal/scoop"
)

// Chrome outside the app table: header, footer and the table's own borders
// and column row.
const chromeLines = 6

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTable(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	s := m.styles
	snap := m.snapshot

	var status string
	switch {
	case snap.Loading:
		status = m.spinner.View() + " " + s.AccentText.Render("Synchronizing")
	case snap.HasError():
		label := "ERROR"
		if snap.IsOffline() {
			label = "OFFLINE"
		}
		status = s.DangerText.Render(label) + " " + s.DangerText.Render(truncate(firstLine(snap.LastError), 80))
	case snap.LastSynced.IsZero():
		status = s.MutedText.Render("Not synchronized")
	default:
		status = s.SuccessText.Render("● Ready")
	}

	parts := []string{
		s.Logo.Render("scoopsync"),
		status,
		s.MutedText.Render(fmt.Sprintf("Apps: %d", len(snap.Apps))),
		s.MutedText.Render(fmt.Sprintf("Buckets: %d", len(snap.Buckets))),
	}
	if updates := countUpdates(snap.Apps); updates > 0 {
		parts = append(parts, s.WarningText.Render(fmt.Sprintf("Updates: %d", updates)))
	}
	if !snap.LastSynced.IsZero() {
		parts = append(parts, s.FaintText.Render("synced "+humanize.Time(snap.LastSynced)))
	}
	if snap.BackgroundCheckPending {
		parts = append(parts, s.FaintText.Render("checking for updates"))
	}
	return s.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTable() string {
	if len(m.apps) == 0 {
		msg := "No installed apps"
		if m.snapshot.Loading {
			msg = "Waiting for the package engine..."
		}
		return m.styles.MutedText.Padding(1, 1).Render(msg)
	}

	end := min(m.offset+m.visibleRows(), len(m.apps))
	rows := make([][]string, 0, end-m.offset)
	for _, app := range m.apps[m.offset:end] {
		rows = append(rows, appRow(app))
	}

	selected := m.selected - m.offset
	s := m.styles
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers("NAME", "VERSION", "BUCKET", "UPDATED", "SIZE", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.Column
			case row == selected:
				return s.Selected
			case col == 5:
				return s.WarningText.Padding(0, 1)
			default:
				return s.Cell
			}
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}
	return t.Render()
}

func (m Model) renderFooter() string {
	var help []string
	for _, b := range m.keys.shortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	info := fmt.Sprintf("sort:%s  theme:%s", m.sort, m.theme.Name)
	return m.styles.Footer.Width(m.width).Render(strings.Join(help, "  ") + "    " + info)
}

func (m Model) visibleRows() int {
	if m.height <= chromeLines {
		return 1
	}
	return m.height - chromeLines
}

func appRow(app scoop.InstalledApp) []string {
	updated := "-"
	if at := app.UpdatedAt(); !at.IsZero() {
		updated = humanize.Time(at)
	}
	size := "-"
	if app.InstallSize > 0 {
		size = humanize.IBytes(app.InstallSize)
	}
	flag := ""
	if app.HasUpdate {
		flag = "↑"
	}
	return []string{app.Name, app.Version, app.Bucket, updated, size, flag}
}

// sortApps returns a sorted copy. Recent and large apps come first; ties fall
// back to the name.
func sortApps(apps []scoop.InstalledApp, order string) []scoop.InstalledApp {
	out := slices.Clone(apps)
	byName := func(a, b scoop.InstalledApp) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	slices.SortStableFunc(out, func(a, b scoop.InstalledApp) int {
		var c int
		switch order {
		case prefs.SortUpdated:
			c = cmp.Compare(b.UpdatedAtMs, a.UpdatedAtMs)
		case prefs.SortSize:
			c = cmp.Compare(b.InstallSize, a.InstallSize)
		}
		if c != 0 {
			return c
		}
		return byName(a, b)
	})
	return out
}

func countUpdates(apps []scoop.InstalledApp) int {
	n := 0
	for _, app := range apps {
		if app.HasUpdate {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

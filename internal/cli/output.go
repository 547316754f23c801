package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/wwtest625/scoop-ui/internal/scoop"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func printApps(w io.Writer, apps []scoop.InstalledApp) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "no installed apps")
		return
	}
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		updated := "-"
		if at := a.UpdatedAt(); !at.IsZero() {
			updated = humanize.Time(at)
		}
		size := "-"
		if a.InstallSize > 0 {
			size = humanize.IBytes(a.InstallSize)
		}
		flag := ""
		if a.HasUpdate {
			flag = "update available"
		}
		rows = append(rows, []string{a.Name, a.Version, a.Bucket, updated, size, flag})
	}
	printTable(w, []string{"NAME", "VERSION", "BUCKET", "UPDATED", "SIZE", ""}, rows)
}

func printBuckets(w io.Writer, buckets []scoop.Bucket) {
	if len(buckets) == 0 {
		fmt.Fprintln(w, "no buckets")
		return
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		updated := "-"
		if at := b.UpdatedAt(); !at.IsZero() {
			updated = humanize.Time(at)
		}
		rows = append(rows, []string{b.Name, b.Source, updated})
	}
	printTable(w, []string{"NAME", "SOURCE", "UPDATED"}, rows)
}

func printHits(w io.Writer, hits []scoop.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{h.Name, h.Version, h.Bucket, truncate(h.Description, 60)})
	}
	printTable(w, []string{"NAME", "VERSION", "BUCKET", "DESCRIPTION"}, rows)
}

func printMessage(w io.Writer, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "done"
	}
	fmt.Fprintln(w, msg)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rw-go/internal/rw"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	defaultPageSize = rw.DefaultPageSize
	defaultWidth    = 120
	minPathWidth    = 20
	timeLayout      = "2006-01-02 15:04:05"
)

// events command
var eventsCmd = &cobra.Command{
	Use:   "events [KEYWORD]",
	Short: "List recorded events, newest first",
	Long: `List recorded events, newest first.

KEYWORD limits the list to events whose path contains it. Matching is
literal: % and _ have no special meaning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pageNum, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		if size < 1 {
			return fmt.Errorf("page size must be positive, got %d", size)
		}

		a, err := newApp("events", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Journal().Available() {
			return fmt.Errorf("event log unavailable, see %s", a.Config().LogDir)
		}

		pager := a.NewPager(size)
		pager.SetKeyword(strings.Join(args, " "))
		pager.Refresh(cmd.Context())
		page := pager.Goto(cmd.Context(), pageNum)

		renderEvents(os.Stdout, page, terminalWidth())
		return nil
	},
}

// terminalWidth returns the width of stdout, or defaultWidth when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// renderEvents writes page as a table sized to width, followed by a
// "1-300 in 305 records" footer.
func renderEvents(w io.Writer, page rw.Page, width int) {
	if len(page.Rows) == 0 {
		fmt.Fprintf(w, "No events. (%d records)\n", page.Total)
		return
	}

	// Columns after the path: log date, type, creation date, size.
	const rest = 2 + 19 + 2 + 17 + 2 + 19 + 2 + 9
	pathWidth := width - rest
	if pathWidth < minPathWidth {
		pathWidth = minPathWidth
	}

	fmt.Fprintf(w, "%-*s  %-19s  %-17s  %-19s  %9s\n", pathWidth, "PATH", "LOG DATE", "TYPE", "CREATED", "SIZE")
	for _, e := range page.Rows {
		fmt.Fprintf(w, "%-*s  %-19s  %-17s  %-19s  %9s\n",
			pathWidth, truncateMiddle(e.Path, pathWidth),
			formatTime(e.RecordedAt),
			e.Kind.Label(),
			formatTime(e.CreatedAt),
			formatSize(e),
		)
	}
	fmt.Fprintf(w, "\n%d-%d in %d records (page %d of %d)\n", page.First(), page.Last(), page.Total, page.Number, page.PageCount())
}

// truncateMiddle shortens s to n runes by replacing its middle with "...".
func truncateMiddle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	head := (n - 3) / 2
	tail := n - 3 - head
	return string(r[:head]) + "..." + string(r[len(r)-tail:])
}

// formatTime renders a unix timestamp in local time, or "-" when unavailable.
func formatTime(ts int64) string {
	if ts < 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format(timeLayout)
}

// formatSize renders the allocated size in decimal units. Events without a
// creation time have no meaningful size and show "-".
func formatSize(e rw.FileEvent) string {
	if e.CreatedAt <= 0 {
		return "-"
	}
	return humanBytes(e.Size)
}

func humanBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}

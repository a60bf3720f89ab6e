package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"TrendPress/internal/domain"
	"TrendPress/internal/textutil"
)

const titleWidth = 60

// WriteSummary renders one row per outcome followed by the run totals.
func WriteSummary(w io.Writer, summary domain.RunSummary) error {
	if summary.Aborted != "" {
		if _, err := fmt.Fprintf(w, "Run aborted: %s\n", summary.Aborted); err != nil {
			return err
		}
	}

	if len(summary.Outcomes) > 0 {
		table := newTable(w)
		table.Header([]string{"Trend", "Title", "Stage", "Status", "Post", "Error"})
		if err := table.Bulk(outcomeRows(summary.Outcomes)); err != nil {
			return fmt.Errorf("table rows: %w", err)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}

	for _, s := range summary.SkippedTrends {
		if _, err := fmt.Fprintf(w, "Skipped %q: %s\n", s.Trend, s.Reason); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nProcessed: %d  Published: %d  Failed: %d  Skipped trends: %d  Duration: %s\n",
		summary.Total(), summary.Succeeded(), summary.Failed(), len(summary.SkippedTrends),
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	return err
}

func outcomeRows(outcomes []domain.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		title := o.Title
		if title == "" {
			title = o.NewsTitle
		}

		status, post := "FAILED", "-"
		if o.Result.Success {
			status = "OK"
			post = strconv.Itoa(o.Result.PostID)
		}

		rows = append(rows, []string{
			o.Trend,
			textutil.Truncate(title, titleWidth),
			string(o.Stage),
			status,
			post,
			o.Result.ErrorKind,
		})
	}
	return rows
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

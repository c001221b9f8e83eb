package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/ZacxDev/clipcaster/internal/timestamp"
	"github.com/ZacxDev/clipcaster/pkg/types"
	"github.com/ZacxDev/clipcaster/pkg/videoprocessor"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func colorEnabled() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func statusText(failed bool) string {
	if !colorEnabled() {
		if failed {
			return "failed"
		}
		return "ok"
	}
	if failed {
		return text.FgRed.Sprint("failed")
	}
	return text.FgGreen.Sprint("ok")
}

func rangeText(r types.TimeRange) string {
	return timestamp.FormatSeconds(r.Start) + "-" + timestamp.FormatSeconds(r.End)
}

func renderReport(report *videoprocessor.Report) string {
	rows := make([][]string, 0, len(report.Results)+len(report.Skipped))
	for _, res := range report.Results {
		file, size, detail := "", "", ""
		if res.Path != "" {
			file = filepath.Base(res.Path)
			size = humanize.Bytes(uint64(res.Size))
		}
		switch {
		case res.Err != nil:
			detail = res.Err.Error()
		case res.Subtitled:
			detail = fmt.Sprintf("%d subtitles", res.Segments)
		default:
			detail = "no speech"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", res.Index),
			rangeText(res.Range),
			statusText(res.Failed()),
			file,
			size,
			detail,
		})
	}
	for _, s := range report.Skipped {
		rows = append(rows, []string{
			"-",
			s.Text,
			"skipped",
			"",
			"",
			fmt.Sprintf("line %d: %v", s.Line, s.Err),
		})
	}

	summary := fmt.Sprintf("run %s: %d produced, %d failed, %d skipped",
		report.RunID, report.Succeeded(), len(report.Failures()), len(report.Skipped))
	return renderTable(
		[]string{"#", "Range", "Status", "File", "Size", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	) + "\n" + summary
}

func renderPlan(source *types.VideoAsset, plan videoprocessor.Plan) string {
	adjusted := make(map[int]bool, len(plan.Adjusted))
	for _, idx := range plan.Adjusted {
		adjusted[idx] = true
	}

	rows := make([][]string, 0, len(plan.Jobs)+len(plan.Skipped))
	for _, job := range plan.Jobs {
		note := ""
		if adjusted[job.Index] {
			note = "end truncated to source duration"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.Index),
			rangeText(job.Range),
			fmt.Sprintf("%.0fs", job.Range.Duration()),
			note,
		})
	}
	for _, s := range plan.Skipped {
		rows = append(rows, []string{"-", s.Text, "", fmt.Sprintf("skipped (line %d): %v", s.Line, s.Err)})
	}

	header := fmt.Sprintf("%s: %dx%d, %s", filepath.Base(source.Path), source.Width, source.Height,
		timestamp.FormatSeconds(source.Duration))
	return header + "\n" + renderTable(
		[]string{"#", "Range", "Length", "Note"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
}

func renderProfiles(profiles []videoprocessor.ProfileInfo) string {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%dx%d", p.Width, p.Height),
			fmt.Sprintf("%ds", p.MaxClipSeconds),
			humanize.Bytes(uint64(p.MaxFileSize)),
			p.AudioBitrate,
			p.Container,
		})
	}
	return renderTable(
		[]string{"Profile", "Frame", "Max length", "Max size", "Audio", "Container"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

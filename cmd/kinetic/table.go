package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows under headers with the rounded style used across
// the CLI. Short rows are padded so every row spans the header width.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	width := len(headers)
	if width == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(paddedRow(headers, width))
	for _, row := range rows {
		tw.AppendRow(paddedRow(row, width))
	}

	var configs []table.ColumnConfig
	for i, align := range aligns {
		if i >= width || align != alignRight {
			continue
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	if len(configs) > 0 {
		tw.SetColumnConfigs(configs)
	}

	return tw.Render()
}

func paddedRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

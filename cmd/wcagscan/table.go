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

// tableColumn describes one column of a rendered table.
type tableColumn struct {
	header   string
	align    columnAlignment
	maxWidth int
}

func column(header string) tableColumn {
	return tableColumn{header: header}
}

func numericColumn(header string) tableColumn {
	return tableColumn{header: header, align: alignRight}
}

// withMaxWidth caps the column width; go-pretty wraps longer cells.
func (c tableColumn) withMaxWidth(width int) tableColumn {
	c.maxWidth = width
	return c
}

func renderTable(columns []tableColumn, rows [][]string) string {
	return renderTitledTable("", columns, rows)
}

// renderTitledTable renders rows in the rounded style. A non-empty title is
// drawn above the header row, matching the service's report tables.
func renderTitledTable(title string, columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col.header
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.align == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const maxCellWidth = 48

// tableSpec describes one listing. Rows listed in banners render as a
// single cell spanning every column.
type tableSpec struct {
	headers []string
	rows    [][]string
	aligns  []columnAlignment
	caption string
	empty   string
	banners map[int]bool
}

// write prints the table followed by a newline, or the empty message when
// there is nothing to list and one is set.
func (s tableSpec) write(w io.Writer) {
	if len(s.rows) == 0 && s.empty != "" {
		fmt.Fprintln(w, s.empty)
		return
	}
	fmt.Fprintln(w, s.render())
}

func (s tableSpec) render() string {
	width := len(s.headers)
	if width == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(cells(s.headers, width))
	for i, row := range s.rows {
		if s.banners[i] && len(row) > 0 {
			banner := make([]string, width)
			for j := range banner {
				banner[j] = row[0]
			}
			tw.AppendRow(cells(banner, width), table.RowConfig{AutoMerge: true})
			continue
		}
		tw.AppendRow(cells(row, width))
	}

	configs := make([]table.ColumnConfig, width)
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            s.alignment(i),
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxCellWidth,
			WidthMaxEnforcer: text.WrapSoft,
		}
	}
	tw.SetColumnConfigs(configs)
	if s.caption != "" {
		tw.SetCaption(s.caption)
	}
	return tw.Render()
}

func (s tableSpec) alignment(col int) text.Align {
	if col < len(s.aligns) && s.aligns[col] == alignRight {
		return text.AlignRight
	}
	return text.AlignLeft
}

// cells pads or truncates values to exactly width columns.
func cells(values []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

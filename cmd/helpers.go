package cmd

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// resolveFormat returns the effective output format, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return "table"
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The fill callback is called with an add function taking row values.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

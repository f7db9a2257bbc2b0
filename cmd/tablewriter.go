/*
tablewriter.go

MIT License

Copyright (c) Foxglove Technologies Inc

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

/*
 Derived from https://github.com/foxglove/foxglove-cli/blob/main/foxglove/util/tablewriter/tablewriter.go
*/

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// cellWidths returns the width of each column, wide enough for the header
// padded two spaces each side and every cell padded one space each side.
// Widths are adjusted so headers can be centered exactly.
func cellWidths(headers []string, data [][]string) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = utf8.RuneCountInString(header) + 4
	}
	for _, row := range data {
		for i, column := range row {
			if w := utf8.RuneCountInString(column) + 2; widths[i] < w {
				widths[i] = w
			}
		}
	}
	for i, header := range headers {
		if (widths[i]-utf8.RuneCountInString(header))%2 == 1 {
			widths[i]++
		}
	}
	return widths
}

/*
printTable outputs a table of records formatted like this:

	|  ID  |   Name   |   Address   |
	|------|----------|-------------|
	| 0    | pem-1    | qb:50300    |
	| 1    | kelvin   | qb:50300    |
*/
func printTable(w io.Writer, headers []string, data [][]string) {
	widths := cellWidths(headers, data)

	fmt.Fprint(w, "|")
	for i, header := range headers {
		padding := strings.Repeat(" ", (widths[i]-utf8.RuneCountInString(header))/2)
		fmt.Fprintf(w, "%s%s%s|", padding, header, padding)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "|")
	for _, width := range widths {
		fmt.Fprint(w, strings.Repeat("-", width), "|")
	}
	fmt.Fprintln(w)

	for _, row := range data {
		fmt.Fprint(w, "|")
		for i, col := range row {
			fmt.Fprintf(w, " %s%s|", col, strings.Repeat(" ", widths[i]-utf8.RuneCountInString(col)-1))
		}
		fmt.Fprintln(w)
	}
}

// stdoutRedirected returns true if stdout is redirected to a file or pipe.
func stdoutRedirected() bool {
	if fi, err := os.Stdout.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}

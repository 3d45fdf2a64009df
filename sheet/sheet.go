// Package sheet moves scoreboard grids in and out of spreadsheets.
//
// The first row of a sheet holds the commands and the first column holds the
// participant handles. Results are written below and to the right of them,
// with cell A1 used as a status line.
package sheet

import (
	"context"
	"errors"
	"strconv"

	"github.com/programme-lv/autoprogcomp/scoreboard"
)

// Sheet is a spreadsheet backend.
type Sheet interface {
	// Read returns the whole grid. Rows may be ragged.
	Read(ctx context.Context) ([][]string, error)
	// WriteStatus overwrites cell A1 with msg, stored as literal text.
	WriteStatus(ctx context.Context, msg string) error
	// WriteResults writes out starting at cell B2.
	WriteResults(ctx context.Context, out [][]string) error
}

type ComputeFunc func(ctx context.Context, commands []string, handles []string) ([]scoreboard.Column, error)

var ErrNoHeader = errors.New("expected header row")

// ComputeResults computes the result grid of an input grid. Blank commands
// and rows without a handle are skipped, and their cells stay blank. The result
// has one row less and one column less than the input.
func ComputeResults(ctx context.Context, grid [][]string, compute ComputeFunc) ([][]string, error) {
	if len(grid) < 1 {
		return nil, ErrNoHeader
	}

	type indexed struct {
		pos   int
		value string
	}
	var handles, commands []indexed
	for i, row := range grid[1:] {
		if len(row) > 0 && row[0] != "" {
			handles = append(handles, indexed{i, row[0]})
		}
	}
	for j, cmd := range tail(grid[0]) {
		if cmd != "" {
			commands = append(commands, indexed{j, cmd})
		}
	}

	values := func(items []indexed) []string {
		res := make([]string, len(items))
		for i, item := range items {
			res[i] = item.value
		}
		return res
	}
	cols, err := compute(ctx, values(commands), values(handles))
	if err != nil {
		return nil, err
	}

	width := max(len(grid[0])-1, 0)
	out := make([][]string, len(grid)-1)
	for i := range out {
		out[i] = make([]string, width)
	}
	for c, col := range cols {
		if c >= len(commands) {
			break
		}
		j := commands[c].pos
		for h, v := range col.Values {
			if h >= len(handles) {
				break
			}
			out[handles[h].pos][j] = FormatValue(v)
		}
	}
	return out, nil
}

func tail(row []string) []string {
	if len(row) == 0 {
		return nil
	}
	return row[1:]
}

// FormatValue renders a value for a user-entered cell: integers as numbers,
// text behind a quote so the spreadsheet keeps it literal, empty as blank.
func FormatValue(v scoreboard.Value) string {
	switch v.Kind {
	case scoreboard.KindInt:
		return strconv.Itoa(v.Int)
	case scoreboard.KindText:
		return "'" + v.Text
	default:
		return ""
	}
}

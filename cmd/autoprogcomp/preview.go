package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/programme-lv/autoprogcomp/sheet"
)

type previewState int

const (
	previewStateComputing previewState = iota
	previewStateDone
)

type previewResultMsg struct {
	out [][]string
	err error
}

// previewModel computes a sheet without writing back and shows the result as a table.
type previewModel struct {
	state   previewState
	spinner spinner.Model
	grid    [][]string
	out     [][]string
	err     error
	compute func() tea.Msg
}

func newPreviewModel(ctx context.Context, grid [][]string, compute sheet.ComputeFunc) previewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))

	return previewModel{
		state:   previewStateComputing,
		spinner: s,
		grid:    grid,
		compute: func() tea.Msg {
			out, err := sheet.ComputeResults(ctx, grid, compute)
			return previewResultMsg{out: out, err: err}
		},
	}
}

func (m previewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.compute)
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case previewResultMsg:
		m.state = previewStateDone
		m.out = msg.out
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		if m.state == previewStateComputing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	switch m.state {
	case previewStateComputing:
		return fmt.Sprintf("%s Computing scoreboard...\n", m.spinner.View())
	default:
		if m.err != nil {
			errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
			return errStyle.Render("ERROR: "+m.err.Error()) + "\n"
		}
		return renderGrid(m.grid, m.out) + "\n"
	}
}

// renderGrid lays the results next to their handles under the command header.
func renderGrid(grid, out [][]string) string {
	if len(grid) == 0 {
		return ""
	}
	headers := append([]string{"handle"}, tailOf(grid[0])...)

	rows := make([][]string, 0, len(out))
	for i, res := range out {
		handle := ""
		if i+1 < len(grid) && len(grid[i+1]) > 0 {
			handle = grid[i+1][0]
		}
		if handle == "" {
			continue
		}
		row := []string{handle}
		for _, cell := range res {
			row = append(row, strings.TrimPrefix(cell, "'"))
		}
		rows = append(rows, row)
	}

	handleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return handleStyle
			}
			return cellStyle
		})
	return t.String()
}

func tailOf(row []string) []string {
	if len(row) == 0 {
		return nil
	}
	return row[1:]
}

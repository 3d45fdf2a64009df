package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// CSVSheet keeps the grid in a local CSV file. Results are stored as
// evaluated, without the quote prefix a spreadsheet needs.
type CSVSheet struct {
	path string
	mu   sync.Mutex
}

func NewCSVSheet(path string) *CSVSheet {
	return &CSVSheet{path: path}
}

func (c *CSVSheet) Read(_ context.Context) ([][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *CSVSheet) read() ([][]string, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", c.path, err)
	}
	return grid, nil
}

func (c *CSVSheet) WriteStatus(_ context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, err := c.read()
	if err != nil {
		return err
	}
	grid = set(grid, 0, 0, msg)
	return c.write(grid)
}

func (c *CSVSheet) WriteResults(_ context.Context, out [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid, err := c.read()
	if err != nil {
		return err
	}
	for i, row := range out {
		for j, cell := range row {
			grid = set(grid, i+1, j+1, strings.TrimPrefix(cell, "'"))
		}
	}
	return c.write(grid)
}

func set(grid [][]string, row, col int, value string) [][]string {
	for len(grid) <= row {
		grid = append(grid, nil)
	}
	for len(grid[row]) <= col {
		grid[row] = append(grid[row], "")
	}
	grid[row][col] = value
	return grid
}

func (c *CSVSheet) write(grid [][]string) error {
	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(grid); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", c.path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheet is one tab of a Google spreadsheet.
type GoogleSheet struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	name          string
}

// CredentialsFile authenticates with a service account key file.
func CredentialsFile(path string) option.ClientOption {
	return option.WithCredentialsFile(path)
}

func NewGoogleSheet(ctx context.Context, spreadsheetID, name string, opts ...option.ClientOption) (*GoogleSheet, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleSheet{
		values:        sheets.NewSpreadsheetsValuesService(srv),
		spreadsheetID: spreadsheetID,
		name:          name,
	}, nil
}

func (g *GoogleSheet) Read(ctx context.Context) ([][]string, error) {
	resp, err := g.values.Get(g.spreadsheetID, fmt.Sprintf("'%s'", g.name)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", g.name, err)
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = fmt.Sprint(cell)
		}
	}
	return grid, nil
}

func (g *GoogleSheet) WriteStatus(ctx context.Context, msg string) error {
	return g.update(ctx, A1Range(g.name, Cell{0, 0}, Cell{0, 0}), [][]string{{msg}}, "RAW")
}

func (g *GoogleSheet) WriteResults(ctx context.Context, out [][]string) error {
	if len(out) == 0 || len(out[0]) == 0 {
		return nil
	}
	rng := A1Range(g.name, Cell{1, 1}, Cell{len(out), len(out[0])})
	return g.update(ctx, rng, out, "USER_ENTERED")
}

func (g *GoogleSheet) update(ctx context.Context, rng string, grid [][]string, inputOption string) error {
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	_, err := g.values.Update(g.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update range %s: %w", rng, err)
	}
	return nil
}

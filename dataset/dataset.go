// Package dataset provides in-memory tabular data and retrieval of remote
// validation artifacts.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Dataset is an in-memory table: ordered column names plus rows of values.
// Cell values are float64 for numeric content, string otherwise, and nil for
// empty cells.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty dataset with the given columns.
func New(columns []string) *Dataset {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
	}
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	return len(d.rows)
}

// AppendRow adds a row, which must have one value per column.
func (d *Dataset) AppendRow(row []any) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("row has %d values, want %d", len(row), len(d.columns))
	}
	d.rows = append(d.rows, append([]any(nil), row...))
	return nil
}

// Column returns all values of the named column in row order.
func (d *Dataset) Column(name string) ([]any, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q in dataset", name)
	}
	values := make([]any, len(d.rows))
	for r, row := range d.rows {
		values[r] = row[i]
	}
	return values, nil
}

// ReadCSV materializes delimited-text tabular data. The first record is the
// header; numeric cells become float64, empty cells nil, everything else
// string.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv data has no header record")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	ds := New(header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = convertCell(cell)
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func convertCell(cell string) any {
	if cell == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}

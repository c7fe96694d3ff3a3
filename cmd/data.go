package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	epi "github.com/epirenew/epirenew/epi"
)

// CSV population-day table loader. Expected layout: a header row with at
// least "population" and "date" columns, then one row per (population,
// day). Every other column becomes a numeric table column; empty cells
// become NaN (legal only where the model treats the column as an
// outcome). Rows of one population must be contiguous in the file and
// their dates contiguous in time.

const dateLayout = "2006-01-02"

type rawSeries struct {
	start time.Time
	last  time.Time
	days  int
	cells map[string][]float64
}

// LoadDataTable reads a CSV table and builds the epi.DataTable, taking
// each population's initial susceptible count from s0.
func LoadDataTable(path string, s0 map[string]float64) (*epi.DataTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	popCol, dateCol := -1, -1
	for i, h := range header {
		switch h {
		case "population":
			popCol = i
		case "date":
			dateCol = i
		}
	}
	if popCol < 0 || dateCol < 0 {
		return nil, fmt.Errorf("csv header must contain 'population' and 'date' columns")
	}

	var order []string
	series := make(map[string]*rawSeries)

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv at row %d: %w", rowIdx, err)
		}

		id := record[popCol]
		date, err := time.Parse(dateLayout, record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("invalid date at row %d: %w", rowIdx, err)
		}

		rs, ok := series[id]
		if !ok {
			rs = &rawSeries{start: date, last: date.AddDate(0, 0, -1), cells: make(map[string][]float64)}
			series[id] = rs
			order = append(order, id)
		}
		if !date.Equal(rs.last.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("population %q: dates not contiguous at row %d (%s after %s)",
				id, rowIdx, record[dateCol], rs.last.Format(dateLayout))
		}
		rs.last = date
		rs.days++

		for i, h := range header {
			if i == popCol || i == dateCol {
				continue
			}
			v := math.NaN()
			if record[i] != "" {
				v, err = strconv.ParseFloat(record[i], 64)
				if err != nil {
					return nil, fmt.Errorf("column %q at row %d: %w", h, rowIdx, err)
				}
			}
			rs.cells[h] = append(rs.cells[h], v)
		}
		rowIdx++
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("csv contains no data rows")
	}

	pops := make([]epi.Population, 0, len(order))
	for _, id := range order {
		pool, ok := s0[id]
		if !ok {
			return nil, fmt.Errorf("population %q appears in the data but has no configured susceptible count", id)
		}
		rs := series[id]
		pops = append(pops, epi.Population{ID: id, Start: rs.start, Days: rs.days, S0: pool})
	}
	table, err := epi.NewDataTable(pops)
	if err != nil {
		return nil, err
	}

	for i, h := range header {
		if i == popCol || i == dateCol {
			continue
		}
		col := make([]float64, 0, table.NumRows())
		for _, id := range order {
			col = append(col, series[id].cells[h]...)
		}
		if err := table.SetColumn(h, col); err != nil {
			return nil, err
		}
	}
	return table, nil
}

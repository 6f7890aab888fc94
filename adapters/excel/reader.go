// Package excel loads CSV and XLSX datasets into matrices. The first row
// names the variables; every other cell must parse as a finite number.
package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/internal"
)

// Reader reads dataset files by extension: .csv, .xlsx and .xlsm.
type Reader struct {
	log *internal.Logger
}

// NewReader creates a dataset file reader.
func NewReader() *Reader {
	return &Reader{log: internal.DefaultLogger.WithComponent("excel")}
}

// Read loads the file at path into a matrix.
func (r *Reader) Read(path string) (*dataset.Matrix, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xlsm":
		rows, err = readSheetRows(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrInvalidDataset, ext)
	}
	if err != nil {
		return nil, err
	}

	m, err := matrixFromRows(rows)
	if err != nil {
		return nil, err
	}
	r.log.Info("read %d samples x %d variables from %s in %s",
		m.NumSamples(), m.NumVariables(), filepath.Base(path), time.Since(start).Round(time.Millisecond))
	return m, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidDataset, err)
	}
	return rows, nil
}

func readSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrInvalidDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// matrixFromRows converts header-plus-data string rows into a matrix. XLSX
// rows arrive with trailing blank cells trimmed, so short rows are treated
// as rows with blank cells, not as a shape error.
func matrixFromRows(rows [][]string) (*dataset.Matrix, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", core.ErrInsufficientData)
	}

	names := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		names[i] = strings.TrimSpace(h)
	}

	samples := len(rows) - 1
	cols := make([][]float64, len(names))
	for i := range cols {
		cols[i] = make([]float64, samples)
	}

	for rowIdx, row := range rows[1:] {
		if len(row) > len(names) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
				core.ErrColumnMismatch, rowIdx+2, len(row), len(names))
		}
		for colIdx := range names {
			cell := ""
			if colIdx < len(row) {
				cell = strings.TrimSpace(row[colIdx])
			}
			if cell == "" {
				return nil, fmt.Errorf("%w: blank cell at row %d column %q",
					core.ErrNonNumericCell, rowIdx+2, names[colIdx])
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %q at row %d column %q",
					core.ErrNonNumericCell, cell, rowIdx+2, names[colIdx])
			}
			cols[colIdx][rowIdx] = v
		}
	}

	return dataset.NewMatrix(names, cols)
}

package dataset

import (
	"fmt"

	"gocausal/domain/core"
)

// Matrix is a rectangular dataset: named float64 columns of equal length,
// one column per variable, one row per sample.
type Matrix struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// NewMatrix validates and wraps named columns. Column order is preserved.
func NewMatrix(names []string, cols [][]float64) (*Matrix, error) {
	if len(names) != len(cols) {
		return nil, core.NewValidationError("matrix", "names and columns count differ")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no columns", core.ErrInvalidDataset)
	}
	rows := len(cols[0])
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, core.NewValidationError("matrix", fmt.Sprintf("column %d has an empty name", i))
		}
		if _, dup := index[name]; dup {
			return nil, core.NewValidationError("matrix", fmt.Sprintf("duplicate column name %q", name))
		}
		if len(cols[i]) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				core.ErrColumnMismatch, name, len(cols[i]), rows)
		}
		index[name] = i
	}
	return &Matrix{names: names, index: index, cols: cols, rows: rows}, nil
}

// Names returns the column names in order. The slice is a copy.
func (m *Matrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// NumVariables returns the column count.
func (m *Matrix) NumVariables() int {
	return len(m.cols)
}

// NumSamples returns the row count.
func (m *Matrix) NumSamples() int {
	return m.rows
}

// Column returns the i-th column. Callers must not mutate it.
func (m *Matrix) Column(i int) []float64 {
	return m.cols[i]
}

// ColumnByName returns the named column.
func (m *Matrix) ColumnByName(name string) ([]float64, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.cols[i], true
}

// Hash returns a deterministic content hash of the matrix.
func (m *Matrix) Hash() core.DatasetHash {
	byName := make(map[string][]float64, len(m.names))
	for i, name := range m.names {
		byName[name] = m.cols[i]
	}
	return core.ComputeDatasetHash(byName)
}

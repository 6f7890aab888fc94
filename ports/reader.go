package ports

import (
	"gocausal/domain/dataset"
)

// DataReader loads a dataset matrix from an external source.
type DataReader interface {
	Read(path string) (*dataset.Matrix, error)
}

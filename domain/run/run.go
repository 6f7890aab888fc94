package run

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"

	"gocausal/domain/core"
)

// JSONFloat is a float64 that marshals NaN as JSON null. FDR and alpha-star
// are NaN when pruning did not run, and bare NaN is not representable in JSON.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (f *JSONFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = JSONFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}

// EdgeRecord is one edge of a finished run, in storable form.
type EdgeRecord struct {
	X    string `json:"x"`
	Y    string `json:"y"`
	Type string `json:"type"` // "directed", "undirected", "bidirected"
}

// PValueRecord is one scored edge with its aggregate p-value.
type PValueRecord struct {
	X string  `json:"x"`
	Y string  `json:"y"`
	P float64 `json:"p"`
}

// Record is a completed discovery run: inputs, options, outputs and report.
type Record struct {
	ID           core.RunID     `json:"id"`
	DatasetName  string         `json:"dataset_name"`
	DatasetHash  string         `json:"dataset_hash"`
	TestKind     string         `json:"test_kind"`
	Alpha        float64        `json:"alpha"`
	Q            float64        `json:"q"`
	ColliderOnly bool           `json:"collider_only"`
	FDR          JSONFloat      `json:"fdr"`
	AlphaStar    JSONFloat      `json:"alpha_star"`
	ElapsedMS    int64          `json:"elapsed_ms"`
	NumNodes     int            `json:"num_nodes"`
	NumEdges     int            `json:"num_edges"`
	Edges        []EdgeRecord   `json:"edges"`
	Removed      []EdgeRecord   `json:"removed"`
	Ambiguous    []EdgeRecord   `json:"ambiguous"`
	PValues      []PValueRecord `json:"p_values"`
	Report       string         `json:"report"`
	Fingerprint  Fingerprint    `json:"fingerprint"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

// Validate checks that the record is storable.
func (r *Record) Validate() error {
	if core.ID(r.ID).IsEmpty() {
		return core.NewValidationError("run", "id cannot be empty")
	}
	if r.DatasetHash == "" {
		return core.NewValidationError("run", "dataset_hash cannot be empty")
	}
	if r.TestKind == "" {
		return core.NewValidationError("run", "test_kind cannot be empty")
	}
	return nil
}

// Fingerprint ties a run to its inputs so identical inputs are detectable.
type Fingerprint struct {
	DatasetHash string    `json:"dataset_hash"`
	OptionsKey  string    `json:"options_key"`
	CodeVersion string    `json:"code_version"`
	Value       core.Hash `json:"value"`
}

// NewFingerprint derives the deterministic fingerprint of a run.
func NewFingerprint(datasetHash core.DatasetHash, optionsKey, codeVersion string) Fingerprint {
	data := fmt.Sprintf("dataset:%s|options:%s|code:%s", datasetHash, optionsKey, codeVersion)
	sum := sha256.Sum256([]byte(data))
	return Fingerprint{
		DatasetHash: datasetHash.String(),
		OptionsKey:  optionsKey,
		CodeVersion: codeVersion,
		Value:       core.Hash(fmt.Sprintf("%x", sum)),
	}
}

// OptionsKey renders search options into the canonical fingerprint component.
func OptionsKey(testKind string, alpha, q float64, colliderOnly bool) string {
	return fmt.Sprintf("test:%s|alpha:%g|q:%g|collider_only:%t", testKind, alpha, q, colliderOnly)
}

// Package app orchestrates discovery runs: load a dataset, profile it, run
// the search engine, persist the record and render its report.
package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"gocausal/adapters/stats/citest"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/graph"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/discovery"
	"gocausal/internal/errors"
	"gocausal/internal/pairwise"
	"gocausal/internal/report"
	"gocausal/ports"
)

// Version is stamped into run fingerprints so stored runs are traceable to
// the code that produced them.
const Version = "v0.1.0"

// RunRequest describes one discovery run. Exactly one of DatasetPath, Matrix
// or Oracle must be set: a path goes through the data reader, a matrix is
// used as-is, and an oracle bypasses data entirely (d-separation runs).
type RunRequest struct {
	DatasetPath string
	Matrix      *dataset.Matrix
	Oracle      ports.IndependenceOracle

	// DatasetName labels the run; defaults to the path when empty.
	DatasetName string

	// Test selects the independence test built over the matrix:
	// "fisherz" (default) or "chisquare". Ignored when Oracle is set.
	Test string

	// Alpha is the test's independence threshold. Ignored when Oracle is set.
	Alpha float64

	// Q caps the adjusted p-value in the pruning phase.
	Q float64

	// ColliderOnly stops the pipeline after collider orientation.
	ColliderOnly bool

	// SkewRule enables the left-right post-pass over still-undirected edges
	// when non-empty. Requires sample data, so oracle runs reject it.
	SkewRule pairwise.Rule
}

// RunOutcome bundles the storable record with the in-memory search result.
type RunOutcome struct {
	Record *run.Record
	Result *discovery.Result
}

// DiscoveryService runs searches under a concurrency cap and persists the
// results. A nil repository disables persistence; runs still complete and
// return their record.
type DiscoveryService struct {
	reader ports.DataReader
	repo   ports.RunRepository
	logger *internal.Logger
	sem    *semaphore.Weighted
}

// NewDiscoveryService creates the service. maxConcurrent caps simultaneous
// searches; values below 1 are raised to 1.
func NewDiscoveryService(reader ports.DataReader, repo ports.RunRepository, logger *internal.Logger, maxConcurrent int64) *DiscoveryService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &DiscoveryService{
		reader: reader,
		repo:   repo,
		logger: logger.WithComponent("discovery"),
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

// Run executes one discovery run end to end. The context gates admission and
// abandonment: the engine itself never polls cancellation, so a cancelled
// context abandons the search goroutine and returns immediately.
func (s *DiscoveryService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "run admission cancelled")
	}
	defer s.sem.Release(1)

	matrix, name, err := s.loadMatrix(req)
	if err != nil {
		return nil, err
	}

	var profiles []dataset.Profile
	if matrix != nil {
		profiles, err = dataset.Profiles(matrix)
		if err != nil {
			return nil, errors.Wrap(err, "profile dataset")
		}
	}

	oracle, testKind, err := s.buildOracle(req, matrix)
	if err != nil {
		return nil, err
	}

	searcher, err := discovery.New(oracle, discovery.Options{Q: req.Q, ColliderOnly: req.ColliderOnly})
	if err != nil {
		return nil, err
	}

	s.logger.Info("run starting: dataset=%s test=%s alpha=%g q=%g", name, testKind, oracle.Alpha(), req.Q)
	result, err := s.search(ctx, searcher)
	if err != nil {
		return nil, err
	}

	if req.SkewRule != "" {
		if matrix == nil {
			return nil, core.NewOptionError("skew-rule", "requires sample data, not an oracle run")
		}
		orienter, err := pairwise.New(matrix, req.SkewRule)
		if err != nil {
			return nil, err
		}
		oriented, err := orienter.Apply(result.Graph)
		if err != nil {
			return nil, errors.Wrap(err, "left-right post-pass")
		}
		s.logger.Debug("left-right post-pass oriented %d edges", oriented)
	}

	rec := buildRecord(req, result, oracle, matrix, name, testKind)
	rec.Report = report.Render(report.Input{Record: rec, Result: result, Profiles: profiles})

	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			return nil, errors.Wrap(err, "persist run")
		}
	}
	s.logger.Info("run %s finished: %d edges kept, %d removed, %d ambiguous (%dms)",
		rec.ID, rec.NumEdges, len(rec.Removed), len(rec.Ambiguous), rec.ElapsedMS)

	return &RunOutcome{Record: rec, Result: result}, nil
}

// Get fetches a stored run.
func (s *DiscoveryService) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	if s.repo == nil {
		return nil, errors.StorageError("no run repository configured")
	}
	return s.repo.Get(ctx, id)
}

// List returns stored run summaries, newest first.
func (s *DiscoveryService) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if s.repo == nil {
		return nil, errors.StorageError("no run repository configured")
	}
	return s.repo.List(ctx, limit)
}

func (s *DiscoveryService) loadMatrix(req RunRequest) (*dataset.Matrix, string, error) {
	switch {
	case req.Matrix != nil:
		name := req.DatasetName
		if name == "" {
			name = "inline"
		}
		return req.Matrix, name, nil
	case req.DatasetPath != "":
		if s.reader == nil {
			return nil, "", errors.ConfigInvalid("no data reader configured")
		}
		m, err := s.reader.Read(req.DatasetPath)
		if err != nil {
			return nil, "", errors.Wrapf(err, "read dataset %s", req.DatasetPath)
		}
		name := req.DatasetName
		if name == "" {
			name = req.DatasetPath
		}
		return m, name, nil
	case req.Oracle != nil:
		name := req.DatasetName
		if name == "" {
			name = "oracle"
		}
		return nil, name, nil
	default:
		return nil, "", errors.InvalidInput("run request needs a dataset path, a matrix or an oracle")
	}
}

func (s *DiscoveryService) buildOracle(req RunRequest, matrix *dataset.Matrix) (ports.IndependenceOracle, string, error) {
	if req.Oracle != nil {
		return req.Oracle, "dsep", nil
	}
	kind := req.Test
	if kind == "" {
		kind = "fisherz"
	}
	switch kind {
	case "fisherz":
		o, err := citest.NewFisherZ(matrix, req.Alpha)
		return o, kind, err
	case "chisquare":
		o, err := citest.NewChiSquare(matrix, req.Alpha)
		return o, kind, err
	default:
		return nil, "", core.NewOptionError("test", fmt.Sprintf("unknown independence test %q", kind))
	}
}

// search runs the engine on its own goroutine so a cancelled context can
// abandon it. The goroutine finishes on its own oracle; no state leaks back
// after abandonment.
func (s *DiscoveryService) search(ctx context.Context, searcher *discovery.Searcher) (*discovery.Result, error) {
	type outcome struct {
		result *discovery.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := searcher.Search()
		done <- outcome{result: res, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "search abandoned")
	case out := <-done:
		return out.result, out.err
	}
}

func buildRecord(req RunRequest, result *discovery.Result, oracle ports.IndependenceOracle, matrix *dataset.Matrix, name, testKind string) *run.Record {
	var hash core.DatasetHash
	if matrix != nil {
		hash = matrix.Hash()
	} else {
		names := graph.NodeNames(oracle.Variables())
		hash = core.NewDatasetHash([]byte("vars:" + strings.Join(names, ",")))
	}
	optionsKey := run.OptionsKey(testKind, oracle.Alpha(), req.Q, req.ColliderOnly)

	pvalues := make([]run.PValueRecord, len(result.PValues))
	for i, score := range result.PValues {
		pvalues[i] = run.PValueRecord{X: score.X.Name(), Y: score.Y.Name(), P: score.P}
	}

	return &run.Record{
		ID:           core.RunID(core.NewID()),
		DatasetName:  name,
		DatasetHash:  hash.String(),
		TestKind:     testKind,
		Alpha:        oracle.Alpha(),
		Q:            req.Q,
		ColliderOnly: req.ColliderOnly,
		FDR:          run.JSONFloat(result.FDR),
		AlphaStar:    run.JSONFloat(result.AlphaStar),
		ElapsedMS:    result.Elapsed.Milliseconds(),
		NumNodes:     result.Graph.NumNodes(),
		NumEdges:     result.Graph.NumEdges(),
		Edges:        edgeRecords(result.Graph.Edges()),
		Removed:      edgeRecords(result.Removed),
		Ambiguous:    edgeRecords(result.Ambiguous),
		PValues:      pvalues,
		Fingerprint:  run.NewFingerprint(hash, optionsKey, Version),
		CreatedAt:    core.Now(),
	}
}

func edgeRecords(edges []graph.Edge) []run.EdgeRecord {
	out := make([]run.EdgeRecord, len(edges))
	for i, e := range edges {
		out[i] = edgeRecord(e)
	}
	return out
}

func edgeRecord(e graph.Edge) run.EdgeRecord {
	switch {
	case e.IsDirected():
		return run.EdgeRecord{X: e.TailNode().Name(), Y: e.HeadNode().Name(), Type: "directed"}
	case e.IsBidirected():
		return run.EdgeRecord{X: e.X.Name(), Y: e.Y.Name(), Type: "bidirected"}
	default:
		return run.EdgeRecord{X: e.X.Name(), Y: e.Y.Name(), Type: "undirected"}
	}
}

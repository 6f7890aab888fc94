package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocausal/adapters/stats/citest"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/testkit"
	"gocausal/ports"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, rec *run.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRepo) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	args := m.Called(ctx, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*run.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	args := m.Called(ctx, limit)
	if rows := args.Get(0); rows != nil {
		return rows.([]ports.RunSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func TestRunWithDSepOracle(t *testing.T) {
	dag := testkit.ChainDAG("A", "B", "C", "D")
	oracle, err := citest.NewDSep(dag, 0.05)
	require.NoError(t, err)

	repo := new(mockRepo)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*run.Record")).Return(nil).Once()

	svc := NewDiscoveryService(nil, repo, quietLogger(), 2)
	out, err := svc.Run(context.Background(), RunRequest{
		Oracle:      oracle,
		DatasetName: "chain",
		Q:           1.0,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	rec := out.Record
	assert.Equal(t, "chain", rec.DatasetName)
	assert.Equal(t, "dsep", rec.TestKind)
	assert.Equal(t, 4, rec.NumNodes)
	assert.Equal(t, 3, rec.NumEdges)
	assert.NotEmpty(t, rec.DatasetHash)
	assert.NotEmpty(t, rec.Fingerprint.Value)
	assert.True(t, strings.Contains(rec.Report, "# Discovery Report: chain"))

	// A chain has no unshielded collider the oracle would endorse, so every
	// recovered edge stays undirected.
	for _, e := range rec.Edges {
		assert.Equal(t, "undirected", e.Type)
	}
}

func TestRunWithFisherZOnSampledData(t *testing.T) {
	dag := testkit.ColliderDAG("X", "Y", "Z")
	sampler := testkit.LinearGaussian{Coef: 0.8, Noise: 1.0, Seed: 7}
	matrix, err := sampler.Sample(dag, 2000)
	require.NoError(t, err)

	repo := NewMemoryRunRepository()
	svc := NewDiscoveryService(nil, repo, quietLogger(), 1)
	out, err := svc.Run(context.Background(), RunRequest{
		Matrix:      matrix,
		DatasetName: "collider",
		Test:        "fisherz",
		Alpha:       0.05,
		Q:           1.0,
	})
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Record.Fingerprint.Value, stored.Fingerprint.Value)
	assert.Equal(t, matrix.Hash().String(), stored.DatasetHash)

	summaries, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, out.Record.ID, summaries[0].ID)

	// X and Y cause Z independently, so the collider X -> Z <- Y should be
	// recovered from a sample this size.
	directed := 0
	for _, e := range stored.Edges {
		if e.Type == "directed" {
			directed++
			assert.Equal(t, "Z", e.Y)
		}
	}
	assert.Equal(t, 2, directed)
}

func TestRunRequestValidation(t *testing.T) {
	svc := NewDiscoveryService(nil, nil, quietLogger(), 1)
	ctx := context.Background()

	_, err := svc.Run(ctx, RunRequest{})
	assert.Error(t, err, "empty request must be rejected")

	dag := testkit.ChainDAG("A", "B")
	oracle, err := citest.NewDSep(dag, 0.05)
	require.NoError(t, err)

	_, err = svc.Run(ctx, RunRequest{Oracle: oracle, SkewRule: "rskew"})
	assert.Error(t, err, "skew rule needs sample data")

	_, err = svc.Run(ctx, RunRequest{Oracle: oracle, Q: 2.0})
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	sampler := testkit.LinearGaussian{Coef: 0.5, Noise: 1.0, Seed: 1}
	matrix, err := sampler.Sample(dag, 50)
	require.NoError(t, err)
	_, err = svc.Run(ctx, RunRequest{Matrix: matrix, Test: "mutualinfo", Alpha: 0.05, Q: 1})
	assert.Error(t, err, "unknown test kind must be rejected")
}

func TestRunCancelledContext(t *testing.T) {
	dag := testkit.ChainDAG("A", "B", "C")
	oracle, err := citest.NewDSep(dag, 0.05)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewDiscoveryService(nil, nil, quietLogger(), 1)
	_, err = svc.Run(ctx, RunRequest{Oracle: oracle, Q: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithoutRepositoryStillCompletes(t *testing.T) {
	dag := testkit.ChainDAG("A", "B", "C")
	oracle, err := citest.NewDSep(dag, 0.05)
	require.NoError(t, err)

	svc := NewDiscoveryService(nil, nil, quietLogger(), 1)
	out, err := svc.Run(context.Background(), RunRequest{Oracle: oracle, Q: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Record.NumEdges)

	_, err = svc.Get(context.Background(), out.Record.ID)
	assert.Error(t, err, "no repository configured")
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repo := NewMemoryRunRepository()
	_, err := repo.Get(context.Background(), core.RunID(core.NewID()))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

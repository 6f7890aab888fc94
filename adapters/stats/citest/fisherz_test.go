package citest

import (
	"errors"
	"math"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/graph"
	"gocausal/internal/testkit"
)

func nodeByName(t *testing.T, nodes []*graph.Node, name string) *graph.Node {
	t.Helper()
	for _, n := range nodes {
		if n.Name() == name {
			return n
		}
	}
	t.Fatalf("no variable named %q", name)
	return nil
}

func TestFisherZChainRecovery(t *testing.T) {
	dag := testkit.ChainDAG("X", "Y", "Z")
	m, err := testkit.LinearGaussian{Coef: 0.8, Noise: 1, Seed: 7}.Sample(dag, 4000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	oracle, err := NewFisherZ(m, 0.001)
	if err != nil {
		t.Fatalf("NewFisherZ: %v", err)
	}
	vars := oracle.Variables()
	x := nodeByName(t, vars, "X")
	y := nodeByName(t, vars, "Y")
	z := nodeByName(t, vars, "Z")

	if indep, p := oracle.Test(x, z, []*graph.Node{y}); !indep {
		t.Errorf("X and Z given Y: dependent at p = %g, want independent", p)
	}
	if indep, p := oracle.Test(x, z, nil); indep {
		t.Errorf("X and Z marginally: independent at p = %g, want dependent", p)
	}
	if indep, p := oracle.Test(x, y, nil); indep {
		t.Errorf("X and Y: independent at p = %g, want dependent", p)
	}
}

func TestFisherZColliderRecovery(t *testing.T) {
	dag := testkit.ColliderDAG("X", "Y", "Z")
	m, err := testkit.LinearGaussian{Coef: 0.8, Noise: 1, Seed: 19}.Sample(dag, 4000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	oracle, err := NewFisherZ(m, 0.001)
	if err != nil {
		t.Fatalf("NewFisherZ: %v", err)
	}
	vars := oracle.Variables()
	x := nodeByName(t, vars, "X")
	y := nodeByName(t, vars, "Y")
	z := nodeByName(t, vars, "Z")

	if indep, p := oracle.Test(x, y, nil); !indep {
		t.Errorf("X and Y marginally: dependent at p = %g, want independent", p)
	}
	if indep, p := oracle.Test(x, y, []*graph.Node{z}); indep {
		t.Errorf("X and Y given their collider: independent at p = %g, want dependent", p)
	}
}

func TestFisherZSampleSizeGuard(t *testing.T) {
	m, err := dataset.NewMatrix(
		[]string{"A", "B", "C"},
		[][]float64{{1, 2, 3, 4}, {2, 1, 4, 3}, {1, 3, 2, 4}},
	)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	oracle, err := NewFisherZ(m, 0.05)
	if err != nil {
		t.Fatalf("NewFisherZ: %v", err)
	}
	vars := oracle.Variables()

	// n - |S| - 3 = 0 leaves no degrees of freedom.
	if _, p := oracle.Test(vars[0], vars[1], vars[2:3]); !math.IsNaN(p) {
		t.Errorf("p = %g, want NaN with 4 samples and one conditioning variable", p)
	}
}

func TestFisherZSingularCovariance(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	dup := make([]float64, len(base))
	copy(dup, base)
	m, err := dataset.NewMatrix([]string{"A", "B"}, [][]float64{base, dup})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	oracle, err := NewFisherZ(m, 0.05)
	if err != nil {
		t.Fatalf("NewFisherZ: %v", err)
	}
	vars := oracle.Variables()

	if _, p := oracle.Test(vars[0], vars[1], nil); !math.IsNaN(p) {
		t.Errorf("p = %g, want NaN for identical columns", p)
	}
}

func TestFisherZAlphaValidation(t *testing.T) {
	m, err := dataset.NewMatrix([]string{"A"}, [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	for _, alpha := range []float64{0, 1, -0.5} {
		if _, err := NewFisherZ(m, alpha); !errors.Is(err, core.ErrInvalidOption) {
			t.Errorf("alpha %g: err = %v, want ErrInvalidOption", alpha, err)
		}
	}
}
